package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Size       int64
	VideoCodec string
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// FrameOptions configures single-frame extraction
type FrameOptions struct {
	Input      string
	Output     string
	PositionMs int64
	// Quality is the JPEG qscale (2-31, lower is better); 0 means DefaultFrameQuality.
	Quality int
}

// DefaultFrameQuality matches the high quality JPEG setting used for snapshots
const DefaultFrameQuality = 2
