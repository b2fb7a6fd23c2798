// internal/player/state.go
package player

// State represents the playback state machine.
//
//	┌──────────┐      play       ┌──────────┐
//	│  Stopped │ ───────────────▶│  Playing │
//	└──────────┘                 └──────────┘
//	                               ▲      │
//	                          play │      │ pause
//	                               │      ▼
//	                             ┌──────────┐
//	                             │  Paused  │
//	                             └──────────┘
//
// Toggle flips Playing and not-Playing. Rate changes always end in Playing.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Rates supported by the transport controls.
const (
	RateRewind      = -1.0
	RateSlowRewind  = -0.25
	RateSlowForward = 0.25
	RateForward     = 1.0
	RateFast        = 2.0
)
