package browser

import (
	"math/rand"
	"time"
)

// RandomDelay waits for a random duration between min and max milliseconds
func RandomDelay(min, max int) {
	if min >= max {
		time.Sleep(time.Duration(min) * time.Millisecond)
		return
	}
	duration := rand.Intn(max-min+1) + min
	time.Sleep(time.Duration(duration) * time.Millisecond)
}

// Pacer inserts the pause that follows navigation and clicks.
type Pacer interface {
	Pause()
}

type RandomPacer struct {
	Min time.Duration
	Max time.Duration
}

func (p RandomPacer) Pause() {
	RandomDelay(int(p.Min.Milliseconds()), int(p.Max.Milliseconds()))
}

// NoPause skips pacing entirely.
type NoPause struct{}

func (NoPause) Pause() {}
