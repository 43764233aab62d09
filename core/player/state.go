package player

import "math"

// Track 是一条可播放的音频条目（不可变值）。
// ID 是不透明的稳定标识，作为“同一曲目”的相等键。
type Track struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist,omitempty"`
	Album    string    `json:"album,omitempty"`
	AudioURL string    `json:"audioUrl"`
	Duration float64   `json:"duration,omitempty"` // 秒，源报告真实时长前有效
	Peaks    []float64 `json:"peaks,omitempty"`    // 预计算的振幅采样，供可视化组件直接使用
}

// PlaybackState 是会话对外可见的播放状态快照。
// Volume 是用户的目标音量，DisplayVolume 是实际输出电平，
// 仅在渐入过程中二者不同。
type PlaybackState struct {
	CurrentTrack  *Track  `json:"currentTrack"`
	IsPlaying     bool    `json:"isPlaying"`
	CurrentTime   float64 `json:"currentTime"`
	Duration      float64 `json:"duration"`
	Volume        float64 `json:"volume"`
	DisplayVolume float64 `json:"displayVolume"`
	IsFadingIn    bool    `json:"isFadingIn"`
}

func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isInvalid(v float64) bool {
	return math.IsNaN(v)
}
