package catalog

import (
	"time"

	"github.com/keagan/framefinder/internal/ffmpeg"
)

// Entry is one probed playlist file.
type Entry struct {
	Index int
	Path  string
	Info  *ffmpeg.VideoInfo
	Err   error
}

// Summary totals a scan.
type Summary struct {
	Files    int
	Failed   int
	Duration time.Duration
	Bytes    int64
}

// Summarize totals the entries that probed successfully.
func Summarize(entries []Entry) Summary {
	s := Summary{Files: len(entries)}
	for _, e := range entries {
		if e.Err != nil || e.Info == nil {
			s.Failed++
			continue
		}
		s.Duration += e.Info.Duration
		s.Bytes += e.Info.Size
	}
	return s
}
