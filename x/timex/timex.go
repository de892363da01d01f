package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// FrameDuration returns the time one character occupies on the wire for an
// 8N1 UART frame (start + 8 data + stop = 10 bits). baud==0 is coerced to 1
// to avoid division by zero.
func FrameDuration(baud uint32) time.Duration {
	if baud == 0 {
		baud = 1
	}
	return time.Duration(uint64(10_000_000_000) / uint64(baud))
}
