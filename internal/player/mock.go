// internal/player/mock.go
package player

import "time"

// Mock is a test double for Interface. It records every command and emits
// nothing on its own; tests push events with Emit.
type Mock struct {
	state     State
	rate      float64
	loaded    string
	loadErr   error
	playErr   error
	position  time.Duration
	posErr    error
	loadCalls []string
	seekCalls []time.Duration
	rateCalls []float64
	playCalls int
	events    chan Event
	closed    bool
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{
		state:  Stopped,
		rate:   RateForward,
		events: make(chan Event, 64),
	}
}

func (m *Mock) Load(path string) error {
	m.loadCalls = append(m.loadCalls, path)
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = path
	m.state = Paused
	m.position = 0
	return nil
}

func (m *Mock) Play() error {
	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	if m.loaded != "" {
		m.state = Playing
	}
	return nil
}

func (m *Mock) Pause() error {
	if m.state == Playing {
		m.state = Paused
	}
	return nil
}

func (m *Mock) SetRate(rate float64) error {
	m.rateCalls = append(m.rateCalls, rate)
	m.rate = rate
	return nil
}

func (m *Mock) Seek(pos time.Duration) error {
	m.seekCalls = append(m.seekCalls, pos)
	m.position = pos
	return nil
}

func (m *Mock) Position() (time.Duration, error) {
	if m.posErr != nil {
		return 0, m.posErr
	}
	return m.position, nil
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() error {
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// Test helpers

func (m *Mock) State() State { return m.state }

func (m *Mock) Rate() float64 { return m.rate }

func (m *Mock) Loaded() string { return m.loaded }

func (m *Mock) SetState(s State) { m.state = s }

func (m *Mock) SetLoadError(err error) { m.loadErr = err }

func (m *Mock) SetPlayError(err error) { m.playErr = err }

func (m *Mock) SetPosition(pos time.Duration) { m.position = pos }

func (m *Mock) SetPositionError(err error) { m.posErr = err }

func (m *Mock) LoadCalls() []string { return m.loadCalls }

func (m *Mock) SeekCalls() []time.Duration { return m.seekCalls }

func (m *Mock) RateCalls() []float64 { return m.rateCalls }

func (m *Mock) PlayCalls() int { return m.playCalls }

// Emit queues an event as if the player had sent it.
func (m *Mock) Emit(e Event) { m.events <- e }

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
