package player

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultTickInterval 是播放时钟的默认步进间隔
const DefaultTickInterval = 500 * time.Millisecond

var errNoLocator = errors.New("player: no audio locator loaded")

// WallClockSource 是服务端的模拟播放头：按墙钟推进播放位置，
// 周期性回送时间事件，到达时长时回送结束事件。服务器用它协调
// 状态，音频字节由各端自行获取播放。
//
// 事件全部从内部循环的 goroutine 投递，符合 Source 的契约。
type WallClockSource struct {
	mu       sync.Mutex
	events   Events
	tick     time.Duration
	url      string
	duration float64
	pos      float64
	volume   float64
	playing  bool
	stop     chan bool // 发送 true 表示暂停（回送 OnPause），false 表示静默停止
}

// NewWallClockSource 创建播放时钟源
func NewWallClockSource(tick time.Duration) *WallClockSource {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &WallClockSource{tick: tick}
}

// SetEvents 注册事件回调
func (s *WallClockSource) SetEvents(ev Events) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = ev
}

// Load 绑定定位符并复位播放头。进行中的循环被静默停止。
func (s *WallClockSource) Load(url string, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(false)
	s.url = url
	s.duration = duration
	s.pos = 0
}

// Play 启动播放循环。未加载定位符时报错（会话按启动被拒处理）。
func (s *WallClockSource) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.url == "" {
		return errNoLocator
	}
	if s.playing {
		return nil
	}

	s.playing = true
	s.stop = make(chan bool, 1)
	go s.run(s.stop)
	return nil
}

// Pause 停止播放循环，OnPause 由循环退出时回送
func (s *WallClockSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(true)
}

// Seek 移动播放头
func (s *WallClockSource) Seek(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	if s.duration > 0 && seconds > s.duration {
		seconds = s.duration
	}
	s.pos = seconds
}

// SetVolume 记录输出电平
func (s *WallClockSource) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

// Volume 返回当前输出电平
func (s *WallClockSource) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Position 返回当前播放位置（秒）
func (s *WallClockSource) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Release 静默停止循环并释放定位符
func (s *WallClockSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(false)
	s.url = ""
	s.duration = 0
	s.pos = 0
}

// stopLocked 终止进行中的循环。stop 通道带缓冲，持锁发送不会
// 与循环里的加锁互等。
func (s *WallClockSource) stopLocked(emitPause bool) {
	if s.stop == nil {
		return
	}
	s.stop <- emitPause
	s.stop = nil
	s.playing = false
}

func (s *WallClockSource) run(stop chan bool) {
	s.mu.Lock()
	ev := s.events
	dur := s.duration
	tick := s.tick
	s.mu.Unlock()

	if ev.OnPlay != nil {
		ev.OnPlay()
	}
	if dur > 0 && ev.OnDurationChange != nil {
		ev.OnDurationChange(dur)
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case emitPause := <-stop:
			if emitPause && ev.OnPause != nil {
				ev.OnPause()
			}
			return

		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now

			s.mu.Lock()
			// Load/Release 换代后旧循环可能已收到一次 tick，
			// 通道身份不匹配时直接退出，不触碰新的播放头
			if s.stop != stop {
				s.mu.Unlock()
				return
			}
			s.pos += elapsed
			dur = s.duration
			ended := dur > 0 && s.pos >= dur
			if ended {
				s.pos = dur
				s.playing = false
				s.stop = nil
			}
			pos := s.pos
			s.mu.Unlock()

			if ev.OnTimeUpdate != nil {
				ev.OnTimeUpdate(pos)
			}
			if ended {
				if ev.OnEnded != nil {
					ev.OnEnded()
				}
				return
			}
		}
	}
}
