package gridshadow

import (
	"time"
)

// FrameClock counts frames and measures the time between them.
type FrameClock struct {
	Frame uint64
	Time  time.Time
	Dt    time.Duration
}

type FrameModule struct {
}

func (mod FrameModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&FrameClock{
		Time: time.Now(),
		Dt:   0,
	})
	cmd.UseSystem(System(frameSystem).InStage(Extract))
}

func frameSystem(clock *FrameClock) {
	now := time.Now()

	clock.Dt = now.Sub(clock.Time)
	clock.Time = now
	clock.Frame++
}
