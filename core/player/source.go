package player

import "context"

// Events 是媒体源向会话回送的异步事件。
// 实现方必须从自己的事件循环中投递，绝不能在控制方法内同步回调，
// 否则会话持有的锁会与事件处理互相等待。
type Events struct {
	OnTimeUpdate     func(seconds float64)
	OnDurationChange func(seconds float64)
	OnEnded          func()
	OnPlay           func()
	OnPause          func()
}

// Source 抽象会话持有的那一个媒体源。
// 全局模式下它是唯一的共享源，standalone 模式下每个实例私有一个。
//
// Play 阻塞到后端确认开始发声为止，平台拒绝（例如自动播放限制）
// 时返回错误。其余控制方法立即生效且不得失败。
type Source interface {
	// Load 绑定音频定位符并复位播放位置。duration 为调用方已知的
	// 时长（秒），源报告真实时长前作为初值。
	Load(url string, duration float64)
	Play(ctx context.Context) error
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
	// Release 释放定位符并复位全部源状态
	Release()
	// SetEvents 注册事件回调，必须在首次 Play 之前调用
	SetEvents(ev Events)
}
