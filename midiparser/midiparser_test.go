package midiparser

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"pianowarp/timeline"
)

func buildSMF(t *testing.T) []byte {
	t.Helper()
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(480)

	var tempo smf.Track
	tempo.Add(0, smf.MetaTempo(120))
	tempo.Add(480, smf.MetaTempo(100))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		t.Fatalf("add tempo track: %v", err)
	}

	var notes smf.Track
	notes.Add(0, midi.NoteOn(0, 60, 100))
	notes.Add(240, midi.NoteOn(DrumChannel, 36, 127))
	notes.Add(0, midi.NoteOn(0, 60, 0))
	notes.Add(240, midi.NoteOn(0, 64, 90))
	notes.Add(240, midi.NoteOff(0, 64))
	notes.Close(0)
	if err := sm.Add(notes); err != nil {
		t.Fatalf("add note track: %v", err)
	}

	var buf bytes.Buffer
	if _, err := sm.WriteTo(&buf); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	return buf.Bytes()
}

type absEvent struct {
	tick uint64
	ev   timeline.Event
}

func absolute(events []timeline.Event) []absEvent {
	var out []absEvent
	var tick uint64
	for _, ev := range events {
		tick += uint64(ev.Delta)
		if ev.Kind == timeline.Other {
			continue
		}
		ev.Delta = 0
		out = append(out, absEvent{tick: tick, ev: ev})
	}
	return out
}

func TestParseMergesTracks(t *testing.T) {
	parsed, err := Parse(bytes.NewReader(buildSMF(t)), SkipChannel(DrumChannel))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.Performance.TicksPerBeat != 480 {
		t.Errorf("TicksPerBeat = %d", parsed.Performance.TicksPerBeat)
	}
	if parsed.Meta.TracksNumber != 2 || parsed.Meta.Notes != 2 || parsed.Meta.Tempos != 2 || parsed.Meta.Skipped != 1 {
		t.Errorf("Meta = %+v", parsed.Meta)
	}

	want := []absEvent{
		{0, timeline.Event{Kind: timeline.TempoChange, MicrosPerQuarter: 500000}},
		{0, timeline.Event{Kind: timeline.NoteOn, Pitch: 60, Velocity: 100}},
		{240, timeline.Event{Kind: timeline.NoteOff, Pitch: 60}},
		{480, timeline.Event{Kind: timeline.TempoChange, MicrosPerQuarter: 600000}},
		{480, timeline.Event{Kind: timeline.NoteOn, Pitch: 64, Velocity: 90}},
		{720, timeline.Event{Kind: timeline.NoteOff, Pitch: 64}},
	}
	got := absolute(parsed.Performance.Events)
	if len(got) != len(want) {
		t.Fatalf("got %d events %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.tick != w.tick || g.ev.Kind != w.ev.Kind || g.ev.Pitch != w.ev.Pitch || g.ev.MicrosPerQuarter != w.ev.MicrosPerQuarter {
			t.Errorf("event %d = %+v, want %+v", i, g, w)
		}
		if w.ev.Kind == timeline.NoteOn && g.ev.Velocity != w.ev.Velocity {
			t.Errorf("event %d velocity = %d, want %d", i, g.ev.Velocity, w.ev.Velocity)
		}
	}
}

func TestParseKeepsDrumsUnlessSkipped(t *testing.T) {
	parsed, err := Parse(bytes.NewReader(buildSMF(t)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.Meta.Notes != 3 || parsed.Meta.Skipped != 0 {
		t.Errorf("Meta = %+v", parsed.Meta)
	}
}

func TestParseReplaysCleanly(t *testing.T) {
	parsed, err := Parse(bytes.NewReader(buildSMF(t)), SkipChannel(DrumChannel))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	r, err := timeline.NewReplay(parsed.Performance, timeline.KeyRange{Base: 21, Len: 88})
	if err != nil {
		t.Fatalf("NewReplay() error = %v", err)
	}
	for _, err := range r.Steps() {
		if err != nil {
			t.Errorf("step error: %v", err)
		}
	}
	if len(r.Active()) != 0 {
		t.Errorf("notes left sounding: %+v", r.Active())
	}
	if r.Tempo() != 600000 {
		t.Errorf("Tempo() = %d", r.Tempo())
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mid")
	if err := os.WriteFile(path, buildSMF(t), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFile(path); err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.mid")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile(missing) error = %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(bytes.NewReader([]byte("not a midi file"))); err == nil {
		t.Error("Parse() accepted garbage")
	}
}
