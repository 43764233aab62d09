package player

import (
	"sync"
	"time"
)

// fadeSteps 是一次渐变的固定步数
const fadeSteps = 30

// FadeController 以固定步数执行一次可取消的音量渐变。
// 每步电平取 min(from + step*increment, target)，最后一步精确落在
// target 上，定时器抖动不会造成超调。同一时刻最多只有一条渐变在跑，
// 新的 Start 会先取消旧的。
type FadeController struct {
	mu     sync.Mutex
	cancel chan struct{}
}

// NewFadeController 创建渐变控制器
func NewFadeController() *FadeController {
	return &FadeController{}
}

// Start 启动一次从 from 到 target、历时 duration 的渐变。
// apply 在每一步被调用，done 在最后一步为 true。
func (f *FadeController) Start(from, target float64, duration time.Duration, apply func(level float64, done bool)) {
	f.Cancel()

	if duration <= 0 {
		duration = time.Millisecond * fadeSteps
	}

	cancel := make(chan struct{})
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	increment := (target - from) / fadeSteps
	interval := duration / fadeSteps

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for step := 1; step <= fadeSteps; step++ {
			select {
			case <-cancel:
				return
			case <-ticker.C:
			}

			// tick 与取消可能同时就绪，再确认一次
			select {
			case <-cancel:
				return
			default:
			}

			level := from + float64(step)*increment
			if level > target {
				level = target
			}
			done := step == fadeSteps
			if done {
				level = target
				f.finish(cancel)
			}
			apply(level, done)
		}
	}()
}

// Cancel 同步取消进行中的渐变，无渐变时是安全的空操作
func (f *FadeController) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		close(f.cancel)
		f.cancel = nil
	}
}

// Running 报告是否有渐变进行中
func (f *FadeController) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cancel != nil
}

// finish 在最后一步清除自己的取消句柄，避免误杀后续渐变
func (f *FadeController) finish(cancel chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel == cancel {
		f.cancel = nil
	}
}
