package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"Bt1QPlay/core/broadcast"
	"Bt1QPlay/logger"

	"github.com/google/uuid"
)

// MinFadeFloor 是渐入的最低可闻目标音量。
// 即使用户音量是 0，渐入也会抬到这个下限，保证开始播放后能听到声音。
const MinFadeFloor = 0.05

// DefaultFadeDuration 是未配置时的渐入时长
const DefaultFadeDuration = time.Second

// ErrNilSource 表示会话在没有媒体源的情况下被构造
var ErrNilSource = errors.New("player: session requires a media source")

// ErrClosed 表示在已关闭的会话上调用了操作
var ErrClosed = errors.New("player: session is closed")

// VolumeStore 持久化用户音量偏好。实现不可用时会话退化为
// 仅内存保存音量。
type VolumeStore interface {
	// Load 返回键下已持久化且通过校验的音量，缺失或损坏时 ok 为 false
	Load(ctx context.Context, key string) (volume float64, ok bool)
	Save(ctx context.Context, key string, value float64) error
}

// Config 是会话的不可变构造配置
type Config struct {
	FadeEnabled   bool
	FadeDuration  time.Duration
	PersistVolume bool
	StorageKey    string
	DefaultVolume float64

	// 生命周期回调，均在相应状态迁移完成后、不持有内部锁时调用
	OnPlay       func(Track)
	OnPause      func()
	OnEnd        func()
	OnTimeUpdate func(seconds float64)
}

// Session 是播放协调状态机。它独占一个媒体源，驱动渐变控制器，
// 读写音量存储，并通过广播总线与其他实例互斥。
//
// 全局模式与 standalone 模式共用同一实现：前者作为进程内共享的
// 长生命周期单例，后者由每个独立组件私有构造，区别仅在源的归属。
type Session struct {
	id    string
	cfg   Config
	src   Source
	bus   *broadcast.Bus
	subID int64
	store VolumeStore

	mu      sync.Mutex
	state   PlaybackState
	fade    *FadeController
	fadeSeq uint64
	closed  bool
}

// NewSession 构造会话。src 为 nil 是构造契约违例，立刻报错。
// 音量从存储读取（启用持久化且有效时），否则取配置默认值。
func NewSession(src Source, bus *broadcast.Bus, store VolumeStore, cfg Config) (*Session, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if cfg.FadeDuration <= 0 {
		cfg.FadeDuration = DefaultFadeDuration
	}

	vol := clamp01(cfg.DefaultVolume)
	if cfg.PersistVolume && store != nil && cfg.StorageKey != "" {
		if v, ok := store.Load(context.Background(), cfg.StorageKey); ok {
			vol = v
		}
	}

	s := &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		src:   src,
		bus:   bus,
		store: store,
		fade:  NewFadeController(),
	}
	s.state.Volume = vol
	s.state.DisplayVolume = vol

	src.SetEvents(Events{
		OnTimeUpdate:     s.handleTimeUpdate,
		OnDurationChange: s.handleDurationChange,
		OnEnded:          s.handleEnded,
		OnPlay:           s.handleSourcePlay,
		OnPause:          s.handleSourcePause,
	})

	if bus != nil {
		s.subID = bus.Subscribe(s.handleBroadcast)
	}

	return s, nil
}

// ID 返回会话标识（广播事件的 Origin）
func (s *Session) ID() string {
	return s.id
}

// Snapshot 返回当前播放状态的拷贝
func (s *Session) Snapshot() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if s.state.CurrentTrack != nil {
		t := *s.state.CurrentTrack
		st.CurrentTrack = &t
	}
	return st
}

// Play 加载并播放曲目。传入当前已加载曲目的 ID 时走恢复路径，
// 不会重新加载。源拒绝启动（自动播放限制）时静默完成，不留下
// 不一致状态，也不发广播。
func (s *Session) Play(ctx context.Context, track Track) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	if s.state.CurrentTrack != nil && s.state.CurrentTrack.ID == track.ID {
		s.mu.Unlock()
		return s.resume(ctx)
	}

	s.cancelFadeLocked()

	t := track
	s.state.CurrentTrack = &t
	s.state.CurrentTime = 0
	s.state.Duration = track.Duration
	s.state.IsPlaying = false

	target := s.fadeTargetLocked()
	initial := target
	if s.cfg.FadeEnabled {
		initial = 0
	}
	s.state.DisplayVolume = initial
	s.state.IsFadingIn = s.cfg.FadeEnabled

	s.src.Load(track.AudioURL, track.Duration)
	s.src.SetVolume(initial)
	src := s.src
	s.mu.Unlock()

	if err := src.Play(ctx); err != nil {
		s.recoverDeniedStart(err, track.ID)
		return nil
	}

	s.mu.Lock()
	s.state.IsPlaying = true
	if s.cfg.FadeEnabled {
		s.startFadeLocked(0, target)
	}
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(broadcast.Event{Origin: s.id, TrackID: track.ID})
	}
	if s.cfg.OnPlay != nil {
		s.cfg.OnPlay(track)
	}
	return nil
}

// Pause 暂停播放。渐变中暂停会冻结当前电平，恢复时从冻结处继续。
// 未加载曲目时是空操作。
func (s *Session) Pause() {
	s.mu.Lock()
	if s.closed || s.state.CurrentTrack == nil {
		s.mu.Unlock()
		return
	}

	s.cancelFadeLocked()
	wasPlaying := s.state.IsPlaying
	s.state.IsPlaying = false
	s.src.Pause()
	s.mu.Unlock()

	if wasPlaying && s.cfg.OnPause != nil {
		s.cfg.OnPause()
	}
}

// TogglePlay 在播放与暂停间切换。未加载曲目时是空操作。
func (s *Session) TogglePlay(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state.CurrentTrack == nil {
		s.mu.Unlock()
		return nil
	}
	playing := s.state.IsPlaying
	s.mu.Unlock()

	if playing {
		s.Pause()
		return nil
	}
	return s.resume(ctx)
}

// Seek 跳转到指定秒数，负值与越界值被收敛到 [0, duration]。
// CurrentTime 同步更新，不等源确认。NaN 不改变任何状态。
func (s *Session) Seek(seconds float64) {
	if isInvalid(seconds) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state.CurrentTrack == nil {
		return
	}
	t := clampFloat(seconds, 0, s.state.Duration)
	s.state.CurrentTime = t
	s.src.Seek(t)
}

// SetVolume 设置用户音量。值收敛到 [0,1]，立即作用于源输出，
// 取消进行中的渐变，并在启用持久化时写入存储。存储失败只记日志，
// 内存状态照常更新。NaN 不改变任何状态。
func (s *Session) SetVolume(ctx context.Context, v float64) {
	if isInvalid(v) {
		return
	}
	v = clamp01(v)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.cancelFadeLocked()
	s.state.IsFadingIn = false
	s.state.Volume = v
	s.state.DisplayVolume = v
	s.src.SetVolume(v)

	persist := s.cfg.PersistVolume && s.store != nil && s.cfg.StorageKey != ""
	key := s.cfg.StorageKey
	s.mu.Unlock()

	if !persist {
		return
	}
	if err := s.store.Save(ctx, key, v); err != nil {
		logger.Warn("volume persist failed",
			logger.ErrorField(err),
			logger.String("key", key))
	}
}

// Stop 停止播放并释放定位符，状态回到空态：无曲目、不播放、
// 位置与时长归零、无渐变。
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.stopLocked()
}

// Close 释放会话：取消渐变、释放源、退订广播。重复关闭是空操作。
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopLocked()
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Unsubscribe(s.subID)
	}
	return nil
}

// resume 从暂停恢复播放。电平从当前 DisplayVolume 续到
// max(volume, MinFadeFloor)：渐变已完成时不再起新渐变，避免音量
// 闪回 0；渐变中被暂停时从冻结电平继续爬升。
func (s *Session) resume(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state.CurrentTrack == nil {
		s.mu.Unlock()
		return nil
	}
	if s.state.IsPlaying {
		s.mu.Unlock()
		return nil
	}

	target := s.fadeTargetLocked()
	from := s.state.DisplayVolume
	needRamp := s.cfg.FadeEnabled && from < target
	if !needRamp {
		s.state.IsFadingIn = false
		s.state.DisplayVolume = target
		s.src.SetVolume(target)
	} else {
		s.state.IsFadingIn = true
		s.src.SetVolume(from)
	}

	track := *s.state.CurrentTrack
	src := s.src
	s.mu.Unlock()

	if err := src.Play(ctx); err != nil {
		s.recoverDeniedStart(err, track.ID)
		return nil
	}

	s.mu.Lock()
	s.state.IsPlaying = true
	if needRamp {
		s.startFadeLocked(from, target)
	}
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(broadcast.Event{Origin: s.id, TrackID: track.ID})
	}
	if s.cfg.OnPlay != nil {
		s.cfg.OnPlay(track)
	}
	return nil
}

// recoverDeniedStart 在源拒绝启动后把状态收敛到一致的暂停态
func (s *Session) recoverDeniedStart(err error, trackID string) {
	logger.Debug("source start denied",
		logger.ErrorField(err),
		logger.String("session", s.id),
		logger.String("track", trackID))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelFadeLocked()
	s.state.IsPlaying = false
	s.state.IsFadingIn = false
	s.state.DisplayVolume = s.state.Volume
	// 源的输出电平还停在渐入前的 0，一并复原
	s.src.SetVolume(s.state.Volume)
}

func (s *Session) stopLocked() {
	s.cancelFadeLocked()
	s.src.Pause()
	s.src.Release()
	s.state.CurrentTrack = nil
	s.state.IsPlaying = false
	s.state.CurrentTime = 0
	s.state.Duration = 0
	s.state.IsFadingIn = false
	s.state.DisplayVolume = s.state.Volume
}

// fadeTargetLocked 计算渐入目标电平
func (s *Session) fadeTargetLocked() float64 {
	if s.state.Volume > MinFadeFloor {
		return s.state.Volume
	}
	return MinFadeFloor
}

// cancelFadeLocked 取消进行中的渐变并使在途的步进回调失效
func (s *Session) cancelFadeLocked() {
	s.fadeSeq++
	s.fade.Cancel()
}

// startFadeLocked 启动渐变。步进回调带序号校验，竞争到的旧回调
// 不会覆盖新状态。
func (s *Session) startFadeLocked(from, target float64) {
	s.fadeSeq++
	seq := s.fadeSeq
	s.state.IsFadingIn = true

	s.fade.Start(from, target, s.cfg.FadeDuration, func(level float64, done bool) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed || seq != s.fadeSeq {
			return
		}
		s.state.DisplayVolume = level
		if done {
			s.state.IsFadingIn = false
		}
		s.src.SetVolume(level)
	})
}

// ===== 源事件 =====

func (s *Session) handleTimeUpdate(seconds float64) {
	s.mu.Lock()
	if s.closed || s.state.CurrentTrack == nil {
		s.mu.Unlock()
		return
	}
	s.state.CurrentTime = seconds
	cb := s.cfg.OnTimeUpdate
	s.mu.Unlock()

	if cb != nil {
		cb(seconds)
	}
}

func (s *Session) handleDurationChange(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state.CurrentTrack == nil || seconds <= 0 {
		return
	}
	// 源报告的真实时长覆盖曲目自带的估计值
	s.state.Duration = seconds
}

func (s *Session) handleEnded() {
	s.mu.Lock()
	if s.closed || s.state.CurrentTrack == nil {
		s.mu.Unlock()
		return
	}
	// 曲目比渐变还短时，结束必须掐掉还在爬升的渐变
	s.cancelFadeLocked()
	s.state.IsFadingIn = false
	s.state.IsPlaying = false
	s.state.CurrentTime = 0
	cb := s.cfg.OnEnd
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (s *Session) handleSourcePlay() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state.CurrentTrack == nil {
		return
	}
	// 源的播放/暂停事件是 isPlaying 的最终事实
	s.state.IsPlaying = true
}

func (s *Session) handleSourcePause() {
	s.mu.Lock()
	if s.closed || s.state.CurrentTrack == nil {
		s.mu.Unlock()
		return
	}
	wasPlaying := s.state.IsPlaying
	s.state.IsPlaying = false
	s.mu.Unlock()

	if wasPlaying && s.cfg.OnPause != nil {
		s.cfg.OnPause()
	}
}

// handleBroadcast 收到其他实例的开播通知后自我暂停，
// 不触碰自己的音量与持久化状态。
func (s *Session) handleBroadcast(ev broadcast.Event) {
	if ev.Origin == s.id {
		return
	}

	s.mu.Lock()
	if s.closed || s.state.CurrentTrack == nil ||
		s.state.CurrentTrack.ID == ev.TrackID || !s.state.IsPlaying {
		s.mu.Unlock()
		return
	}

	s.cancelFadeLocked()
	s.state.IsPlaying = false
	s.src.Pause()
	trackID := s.state.CurrentTrack.ID
	s.mu.Unlock()

	logger.Debug("paused by broadcast",
		logger.String("session", s.id),
		logger.String("track", trackID),
		logger.String("startedTrack", ev.TrackID))

	if s.cfg.OnPause != nil {
		s.cfg.OnPause()
	}
}
