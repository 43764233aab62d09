package player

// CursorProgress 把播放位置换算成 [0,1] 的游标进度。
// 时长未知或非法时返回 0。
func CursorProgress(currentTime, totalDuration float64) float64 {
	if isInvalid(currentTime) || isInvalid(totalDuration) || totalDuration <= 0 {
		return 0
	}
	return clamp01(currentTime / totalDuration)
}

// WaveformSync 连接外部波形可视化组件与会话：正向把会话的播放
// 位置喂给游标，反向把用户在波形上的点击转成跳转意图。
type WaveformSync struct {
	session *Session
}

// NewWaveformSync 创建波形同步器
func NewWaveformSync(s *Session) *WaveformSync {
	return &WaveformSync{session: s}
}

// Progress 返回会话当前位置在给定总时长下的游标进度
func (w *WaveformSync) Progress(totalDuration float64) float64 {
	snap := w.session.Snapshot()
	return CursorProgress(snap.CurrentTime, totalDuration)
}

// SeekIntent 处理可视化组件上的跳转意图。trackID 是会话当前曲目
// 时转发给 Seek 并返回 true；属于其他曲目时返回 false，由组件
// 自行移动本地游标，不触碰共享会话。
func (w *WaveformSync) SeekIntent(trackID string, seconds float64) bool {
	snap := w.session.Snapshot()
	if snap.CurrentTrack == nil || snap.CurrentTrack.ID != trackID {
		return false
	}
	w.session.Seek(seconds)
	return true
}
