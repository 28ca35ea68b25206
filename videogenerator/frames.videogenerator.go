package videogenerator

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"pianowarp/timeline"
)

// collectKeyframes drains the replay. A step's snapshot is what sounds
// during its wait, so it starts where the previous wait ended. Bad events
// are logged and skipped.
func collectKeyframes(r *timeline.Replay, log *slog.Logger) ([]keyframe, time.Duration) {
	var frames []keyframe
	var clock time.Duration
	var skipped int

	for step, err := range r.Steps() {
		if err != nil {
			skipped++
			log.Warn("videogenerator: skipping event", "err", err)
		}
		frames = append(frames, keyframe{At: clock, Active: step.Active})
		clock += step.Wait
	}
	frames = append(frames, keyframe{At: clock, Active: r.Active()})

	if skipped > 0 {
		log.Warn("videogenerator: events skipped", "count", skipped)
	}
	return frames, clock
}

// activeAt returns the notes sounding at t. The last keyframe starting at
// or before t wins, so zero-length steps never show.
func activeAt(frames []keyframe, t time.Duration) []timeline.Note {
	i := sort.Search(len(frames), func(i int) bool {
		return frames[i].At > t
	})
	if i == 0 {
		return nil
	}
	return frames[i-1].Active
}

func (p framePlan) total() time.Duration {
	return p.leadIn + p.music + p.tail
}

func (p framePlan) totalFrames() int {
	return int(math.Ceil(p.total().Seconds() * float64(p.fps)))
}

// frameActive returns the notes shown on frame i. Nothing sounds during
// the lead-in.
func (p framePlan) frameActive(i int) []timeline.Note {
	t := time.Duration(float64(i) / float64(p.fps) * float64(time.Second))
	if t < p.leadIn {
		return nil
	}
	return activeAt(p.keyframes, t-p.leadIn)
}
