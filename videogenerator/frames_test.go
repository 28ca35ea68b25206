package videogenerator

import (
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"pianowarp/timeline"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func pitches(notes []timeline.Note) []int {
	out := []int{}
	for _, n := range notes {
		out = append(out, int(n.Pitch))
	}
	return out
}

func mustReplay(t *testing.T, events ...timeline.Event) *timeline.Replay {
	t.Helper()
	r, err := timeline.NewReplay(timeline.Performance{TicksPerBeat: 480, Events: events}, timeline.KeyRange{Base: 60, Len: 12})
	if err != nil {
		t.Fatalf("NewReplay() error = %v", err)
	}
	return r
}

func TestCollectKeyframes(t *testing.T) {
	r := mustReplay(t,
		timeline.Event{Delta: 0, Kind: timeline.NoteOn, Pitch: 60, Velocity: 100},
		timeline.Event{Delta: 480, Kind: timeline.NoteOn, Pitch: 64, Velocity: 100},
		timeline.Event{Delta: 0, Kind: timeline.NoteOn, Pitch: 99, Velocity: 100},
		timeline.Event{Delta: 480, Kind: timeline.NoteOff, Pitch: 60},
	)
	frames, music := collectKeyframes(r, quietLog)

	if music != time.Second {
		t.Errorf("music = %v, want 1s", music)
	}

	tests := []struct {
		name string
		at   time.Duration
		want []int
	}{
		{name: "start", at: 0, want: []int{60}},
		{name: "first beat", at: 250 * time.Millisecond, want: []int{60}},
		{name: "second beat", at: 500 * time.Millisecond, want: []int{60, 64}},
		{name: "end", at: time.Second, want: []int{64}},
		{name: "after end", at: time.Hour, want: []int{64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pitches(activeAt(frames, tt.at)); !slices.Equal(got, tt.want) {
				t.Errorf("activeAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}

	if got := activeAt(frames, -time.Second); got != nil {
		t.Errorf("activeAt before start = %v", got)
	}
}

func TestFramePlan(t *testing.T) {
	frames, music := collectKeyframes(mustReplay(t,
		timeline.Event{Delta: 480, Kind: timeline.NoteOn, Pitch: 62, Velocity: 100},
		timeline.Event{Delta: 480, Kind: timeline.NoteOff, Pitch: 62},
	), quietLog)

	plan := framePlan{
		keyframes: frames,
		music:     music,
		leadIn:    time.Second,
		tail:      500 * time.Millisecond,
		fps:       4,
	}
	if got := plan.totalFrames(); got != 10 {
		t.Fatalf("totalFrames() = %d, want 10", got)
	}

	want := [][]int{{}, {}, {}, {}, {}, {}, {62}, {62}, {}, {}}
	for i := range want {
		if got := pitches(plan.frameActive(i)); !slices.Equal(got, want[i]) {
			t.Errorf("frame %d = %v, want %v", i, got, want[i])
		}
	}
}
