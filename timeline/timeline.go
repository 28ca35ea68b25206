// Package timeline turns a decoded performance into a stream of
// (wait, active notes) steps driven by the tempo map.
package timeline

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"
)

// DefaultTempo is 120 BPM in microseconds per quarter note.
const DefaultTempo = 500000

// WaitFor converts delta ticks at tempo into wall-clock time. The tick
// product is divided before scaling to nanoseconds so that any 24-bit tempo
// and 32-bit delta stay exact.
func WaitFor(tempo int, delta uint32, ticksPerBeat int) time.Duration {
	if delta == 0 {
		return 0
	}
	tpb := int64(ticksPerBeat)
	micros := int64(tempo) * int64(delta)
	whole, rem := micros/tpb, micros%tpb
	return time.Duration(whole)*time.Microsecond + time.Duration(rem)*time.Microsecond/time.Duration(tpb)
}

// Option configures a Replay.
type Option func(*Replay)

// WithLogger sets the logger used for per-event debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Replay) {
		r.log = l
	}
}

// Replay walks a performance once. Each event yields the note set as it was
// before the event together with the time to wait for it; the event is
// applied afterwards.
//
// A Replay is single use and not safe for concurrent use.
type Replay struct {
	perf  Performance
	keys  KeyRange
	log   *slog.Logger
	state State

	pos     int
	tempo   int
	active  []Note
	elapsed time.Duration
}

// NewReplay prepares a replay of p for a keyboard covering keys.
func NewReplay(p Performance, keys KeyRange, opts ...Option) (*Replay, error) {
	if p.TicksPerBeat <= 0 {
		return nil, fmt.Errorf("%w: ticks per beat %d must be positive", ErrPrecondition, p.TicksPerBeat)
	}
	if keys.Len <= 0 {
		return nil, fmt.Errorf("%w: key range length %d must be positive", ErrPrecondition, keys.Len)
	}

	r := &Replay{
		perf:  p,
		keys:  keys,
		log:   slog.Default(),
		tempo: DefaultTempo,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Replay) State() State {
	return r.state
}

// Tempo returns the tempo in effect, in microseconds per quarter note.
func (r *Replay) Tempo() int {
	return r.tempo
}

// Active returns a copy of the current note set.
func (r *Replay) Active() []Note {
	return slices.Clone(r.active)
}

// Elapsed is the sum of the waits emitted so far.
func (r *Replay) Elapsed() time.Duration {
	return r.elapsed
}

// Next emits the step for the next event and then applies the event. ok is
// false once the events are exhausted. A non-nil err comes with a valid step:
// the offending event was skipped and the replay can continue.
func (r *Replay) Next() (step Step, ok bool, err error) {
	if r.state == Done {
		return Step{}, false, nil
	}
	if r.pos >= len(r.perf.Events) {
		r.state = Done
		return Step{}, false, nil
	}
	r.state = Playing

	i := r.pos
	ev := r.perf.Events[i]
	r.pos++

	step = Step{
		Wait:   WaitFor(r.tempo, ev.Delta, r.perf.TicksPerBeat),
		Active: r.Active(),
	}
	r.elapsed += step.Wait

	if err := r.apply(i, ev); err != nil {
		return step, true, err
	}
	if r.pos >= len(r.perf.Events) {
		r.state = Done
	}
	return step, true, nil
}

// Steps iterates the remaining steps. Breaking out of the loop leaves the
// replay where it stopped; ranging again resumes from there.
func (r *Replay) Steps() iter.Seq2[Step, error] {
	return func(yield func(Step, error) bool) {
		for {
			step, ok, err := r.Next()
			if !ok {
				return
			}
			if !yield(step, err) {
				return
			}
		}
	}
}

func (r *Replay) apply(i int, ev Event) error {
	switch ev.Kind {
	case TempoChange:
		if ev.MicrosPerQuarter <= 0 {
			return r.skip(i, ev, fmt.Sprintf("tempo %d must be positive", ev.MicrosPerQuarter))
		}
		r.log.Debug("timeline: tempo change", "event", i, "from", r.tempo, "to", ev.MicrosPerQuarter)
		r.tempo = ev.MicrosPerQuarter

	case NoteOn:
		key, ok := r.keys.Key(int(ev.Pitch))
		if !ok {
			return r.skip(i, ev, fmt.Sprintf("pitch %d maps to key %d outside [0, %d)", ev.Pitch, key, r.keys.Len))
		}
		r.active = append(r.active, Note{Pitch: ev.Pitch, Velocity: ev.Velocity, Key: key})

	case NoteOff:
		if key, ok := r.keys.Key(int(ev.Pitch)); !ok {
			return r.skip(i, ev, fmt.Sprintf("pitch %d maps to key %d outside [0, %d)", ev.Pitch, key, r.keys.Len))
		}
		// Every entry with this pitch goes, whatever its velocity.
		r.active = slices.DeleteFunc(r.active, func(n Note) bool {
			return n.Pitch == ev.Pitch
		})
	}
	return nil
}

func (r *Replay) skip(i int, ev Event, reason string) error {
	if r.pos >= len(r.perf.Events) {
		r.state = Done
	}
	return &DataError{Index: i, Kind: ev.Kind, Reason: reason}
}
