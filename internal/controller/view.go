package controller

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/keagan/framefinder/internal/player"
	"github.com/keagan/framefinder/pkg/util"
)

// ViewState is everything a front end needs to draw the window.
type ViewState struct {
	State      player.State
	Rate       float64
	PositionMs int64
	DurationMs int64
	File       string
	Index      int // playlist position, -1 before the first load
	Count      int
	Status     string
	Preview    string // last saved snapshot
	Busy       bool   // snapshot in flight
	TwoWay     bool   // separate positive and negative directories
}

// HasVideo reports whether a file is loaded.
func (v ViewState) HasVideo() bool {
	return v.File != ""
}

// FileLabel is the base name of the current file, or "No video".
func (v ViewState) FileLabel() string {
	if v.File == "" {
		return "No video"
	}
	return filepath.Base(v.File)
}

// PositionLabel formats the playhead as "0:14 / 1:30".
func (v ViewState) PositionLabel() string {
	pos := util.FormatClock(time.Duration(v.PositionMs) * time.Millisecond)
	dur := util.FormatClock(time.Duration(v.DurationMs) * time.Millisecond)
	return pos + " / " + dur
}

// RateLabel formats the rate as e.g. "-0.25x".
func (v ViewState) RateLabel() string {
	return FormatRate(v.Rate)
}

// Progress returns the playhead as a fraction of the duration.
func (v ViewState) Progress() float64 {
	if v.DurationMs <= 0 {
		return 0
	}
	p := float64(v.PositionMs) / float64(v.DurationMs)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// FormatRate formats a playback rate multiplier.
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "x"
}
