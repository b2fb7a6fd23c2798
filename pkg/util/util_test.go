package util

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0"},
		{1000, "1"},
		{14230, "14.23"},
		{1, "0.001"},
		{61500, "61.5"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.ms); got != tt.want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{14230 * time.Millisecond, "0:14"},
		{75 * time.Second, "1:15"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001.0},
		{"25/0", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := ParseFrameRate(tt.in); got != tt.want {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"clip.mp4", "clip"},
		{"/videos/movies/a.b.mp4", "a.b"},
		{filepath.Join("x", "noext"), "noext"},
	}
	for _, tt := range tests {
		if got := BaseName(tt.in); got != tt.want {
			t.Errorf("BaseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if !FileExists(dir) {
		t.Fatalf("%s was not created", dir)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir on existing dir: %v", err)
	}
}
