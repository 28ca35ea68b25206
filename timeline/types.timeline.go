package timeline

import (
	"errors"
	"fmt"
	"time"
)

// EventKind is the type of a performance event.
type EventKind int

const (
	Other EventKind = iota
	NoteOn
	NoteOff
	TempoChange
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	case TempoChange:
		return "tempo-change"
	}
	return "other"
}

// Event is one decoded performance event. Delta is in ticks since the
// previous event. Pitch and Velocity apply to notes, MicrosPerQuarter to
// tempo changes.
type Event struct {
	Delta            uint32    `json:"delta"`
	Kind             EventKind `json:"kind"`
	Pitch            uint8     `json:"pitch,omitempty"`
	Velocity         uint8     `json:"velocity,omitempty"`
	MicrosPerQuarter int       `json:"micros_per_quarter,omitempty"`
}

// Performance is a decoded performance ready for replay.
type Performance struct {
	TicksPerBeat int     `json:"ticks_per_beat"`
	Events       []Event `json:"events"`
}

// KeyRange maps pitches onto keyboard key indexes: key = pitch - Base.
type KeyRange struct {
	Base int
	Len  int
}

// Key returns the key index for pitch and whether it lies on the keyboard.
func (k KeyRange) Key(pitch int) (int, bool) {
	key := pitch - k.Base
	return key, key >= 0 && key < k.Len
}

// Note is an entry of the active note set.
type Note struct {
	Pitch    uint8 `json:"pitch"`
	Velocity uint8 `json:"velocity"`
	Key      int   `json:"key"`
}

// Step is one replay item: wait Wait, then show Active.
type Step struct {
	Wait   time.Duration
	Active []Note
}

// Pitches lists the active pitches in insertion order.
func (s Step) Pitches() []int {
	out := make([]int, len(s.Active))
	for i, n := range s.Active {
		out[i] = int(n.Pitch)
	}
	return out
}

// State is the replay lifecycle.
type State int

const (
	Idle State = iota
	Playing
	Done
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Done:
		return "done"
	}
	return "idle"
}

var (
	// ErrPrecondition marks an unusable replay configuration.
	ErrPrecondition = errors.New("timeline precondition violated")
	// ErrDataValidity marks a single bad event. The replay skips it and
	// carries on.
	ErrDataValidity = errors.New("invalid performance data")
)

// DataError describes a skipped event.
type DataError struct {
	Index  int
	Kind   EventKind
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: event %d (%s): %s", ErrDataValidity, e.Index, e.Kind, e.Reason)
}

func (e *DataError) Unwrap() error {
	return ErrDataValidity
}
