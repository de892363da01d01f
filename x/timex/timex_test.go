package timex

import (
	"testing"
	"time"
)

func TestFrameDuration(t *testing.T) {
	// 9600 baud, 10 bits per frame: ~1.042 ms per character.
	got := FrameDuration(9600)
	if got < 1041*time.Microsecond || got > 1042*time.Microsecond {
		t.Errorf("FrameDuration(9600) = %v, want ~1.0417ms", got)
	}
	if FrameDuration(0) <= 0 {
		t.Error("FrameDuration(0) must not divide by zero")
	}
}
