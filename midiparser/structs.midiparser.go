package midiparser

import "pianowarp/timeline"

type ParsedMidi struct {
	Performance timeline.Performance `json:"performance"`
	Meta        HeaderMeta           `json:"meta"`
}

type HeaderMeta struct {
	QuarterValue int `json:"quarterValue"`
	TracksNumber int `json:"tracksNumber"`
	Notes        int `json:"notes"`
	Tempos       int `json:"tempos"`
	Skipped      int `json:"skipped"`
}
