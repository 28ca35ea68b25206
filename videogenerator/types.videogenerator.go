package videogenerator

import (
	"time"

	"pianowarp/timeline"
)

type Color struct {
	R float64
	G float64
	B float64
}

// keyframe holds the notes shown from At until the next keyframe.
type keyframe struct {
	At     time.Duration
	Active []timeline.Note
}

// framePlan is everything the painters need to render a video.
type framePlan struct {
	keyframes []keyframe
	music     time.Duration
	leadIn    time.Duration
	tail      time.Duration
	fps       int
}
