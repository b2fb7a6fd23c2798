// internal/player/interface.go
package player

import (
	"errors"
	"time"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("player closed")

// Interface is the media-player capability driven by the controller.
// Commands return once the player has accepted them; the resulting state is
// reported asynchronously on Events.
type Interface interface {
	Load(path string) error
	Play() error
	Pause() error
	// SetRate sets the signed playback rate. Negative rates play backwards.
	SetRate(rate float64) error
	// Seek moves to an absolute position.
	Seek(pos time.Duration) error
	// Position reads the current playhead.
	Position() (time.Duration, error)
	Events() <-chan Event
	Close() error
}

// EventKind identifies a player notification.
type EventKind int

const (
	StateChanged EventKind = iota
	PositionChanged
	DurationChanged
	ErrorOccurred
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case StateChanged:
		return "state"
	case PositionChanged:
		return "position"
	case DurationChanged:
		return "duration"
	case ErrorOccurred:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a notification from the player. Only the field matching Kind is
// meaningful.
type Event struct {
	Kind     EventKind
	State    State
	Position time.Duration
	Duration time.Duration
	Message  string
}
