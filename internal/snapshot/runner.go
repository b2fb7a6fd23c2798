package snapshot

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBusy is returned when a snapshot is requested while another one is
// still being extracted.
var ErrBusy = errors.New("snapshot already in progress")

// Runner executes at most one export at a time in the background.
type Runner struct {
	exporter *Exporter
	busy     atomic.Bool
}

// NewRunner creates a runner around exporter.
func NewRunner(exporter *Exporter) *Runner {
	return &Runner{exporter: exporter}
}

// Start exports req on a new goroutine and calls done with the result once
// finished; done runs on that goroutine. Requests made while an export is in
// flight are rejected with ErrBusy.
func (r *Runner) Start(ctx context.Context, req Request, done func(Result)) error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	go func() {
		res := r.exporter.Export(ctx, req)
		r.busy.Store(false)
		if done != nil {
			done(res)
		}
	}()
	return nil
}

// Busy reports whether an export is in flight.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}
