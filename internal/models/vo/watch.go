package vo

// WatchConditions 描述一次播放会话的进度与剩余量估算。
// Percentage 已被钳制在 [0, 100]；RemainingTimeMs 在码率未知时为 0。
type WatchConditions struct {
	Percentage      float64 `json:"percentage"`
	RemainingBytes  int64   `json:"remainingBytes"`
	RemainingTimeMs int64   `json:"remainingTimeMs"`
}
