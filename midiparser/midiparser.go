// Package midiparser decodes Standard MIDI Files into a single ordered
// performance for the timeline.
package midiparser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"pianowarp/timeline"
)

// DrumChannel is the General MIDI percussion channel (10, zero based 9).
const DrumChannel uint8 = 9

var ErrTimeFormat = errors.New("unsupported time format")

type options struct {
	skipChannels map[uint8]bool
	log          *slog.Logger
}

type Option func(*options)

// SkipChannel drops note events on ch. Dropped events still advance time.
func SkipChannel(ch uint8) Option {
	return func(o *options) {
		o.skipChannels[ch] = true
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

type timedEvent struct {
	tick  uint64
	event timeline.Event
}

// ParseFile reads the SMF at path.
func ParseFile(path string, opts ...Option) (ParsedMidi, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParsedMidi{}, err
	}
	defer f.Close()

	parsed, err := Parse(f, opts...)
	if err != nil {
		return ParsedMidi{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return parsed, nil
}

// Parse decodes an SMF and merges every track into one event stream ordered
// by absolute tick. Events sharing a tick keep track order.
func Parse(r io.Reader, opts ...Option) (ParsedMidi, error) {
	o := options{skipChannels: map[uint8]bool{}, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	sm, err := smf.ReadFrom(r)
	if err != nil {
		return ParsedMidi{}, fmt.Errorf("read smf: %w", err)
	}

	ticks, ok := sm.TimeFormat.(smf.MetricTicks)
	if !ok || ticks == 0 {
		return ParsedMidi{}, fmt.Errorf("%w: %v", ErrTimeFormat, sm.TimeFormat)
	}

	meta := HeaderMeta{
		QuarterValue: int(ticks),
		TracksNumber: len(sm.Tracks),
	}

	var all []timedEvent
	for trackIndex, track := range sm.Tracks {
		var tick uint64
		for _, ev := range track {
			tick += uint64(ev.Delta)
			e, channel, isNote := convert(ev.Message)
			if isNote && o.skipChannels[channel] {
				meta.Skipped++
				e = timeline.Event{Kind: timeline.Other}
			}
			switch e.Kind {
			case timeline.NoteOn:
				meta.Notes++
			case timeline.TempoChange:
				meta.Tempos++
			}
			all = append(all, timedEvent{tick: tick, event: e})
		}
		o.log.Debug("midiparser: track read", "track", trackIndex, "events", len(track), "ticks", tick)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].tick < all[j].tick
	})

	events := make([]timeline.Event, len(all))
	var prev uint64
	for i, te := range all {
		te.event.Delta = uint32(te.tick - prev)
		prev = te.tick
		events[i] = te.event
	}

	o.log.Info("midiparser: decoded",
		"tracks", meta.TracksNumber,
		"ticks_per_beat", meta.QuarterValue,
		"events", len(events),
		"notes", meta.Notes,
		"tempos", meta.Tempos,
		"skipped", meta.Skipped,
	)

	return ParsedMidi{
		Performance: timeline.Performance{
			TicksPerBeat: int(ticks),
			Events:       events,
		},
		Meta: meta,
	}, nil
}

// convert maps one SMF message onto a timeline event. Note-on with velocity
// zero is a note-off.
func convert(msg smf.Message) (e timeline.Event, channel uint8, isNote bool) {
	var key, vel uint8
	var bpm float64

	switch {
	case msg.GetNoteOn(&channel, &key, &vel):
		if vel == 0 {
			return timeline.Event{Kind: timeline.NoteOff, Pitch: key}, channel, true
		}
		return timeline.Event{Kind: timeline.NoteOn, Pitch: key, Velocity: vel}, channel, true
	case msg.GetNoteOff(&channel, &key, &vel):
		return timeline.Event{Kind: timeline.NoteOff, Pitch: key, Velocity: vel}, channel, true
	case msg.GetMetaTempo(&bpm):
		if bpm <= 0 {
			return timeline.Event{Kind: timeline.TempoChange}, 0, false
		}
		return timeline.Event{
			Kind:             timeline.TempoChange,
			MicrosPerQuarter: int(math.Round(60000000 / bpm)),
		}, 0, false
	}
	return timeline.Event{Kind: timeline.Other}, 0, false
}
