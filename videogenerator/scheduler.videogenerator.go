package videogenerator

import (
	"context"
	"log/slog"
	"time"

	"pianowarp/timeline"
)

// Play runs the replay in real time. Each step's snapshot is shown first
// and then held for the step's wait, so the keys lit during a wait are the
// ones sounding over it; waiting before painting would show every change
// one event late. The final note set is shown once the events run out. Cancelling ctx stops
// playback between steps and returns ctx.Err().
func Play(ctx context.Context, r *timeline.Replay, log *slog.Logger, show func(active []timeline.Note)) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for step, err := range r.Steps() {
		if err != nil {
			log.Warn("videogenerator: skipping event", "err", err)
		}
		show(step.Active)

		if step.Wait <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		timer.Reset(step.Wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	show(r.Active())
	return nil
}
