package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/oshokin/alarm-history/internal/domain/history"
)

// errBackendPanic wraps a panic raised inside the backend call.
var errBackendPanic = errors.New("backend panicked")

// Fetch is the handle of one background retrieval.
//
// StartFetch launches the call and returns at once; Wait blocks until the
// call resolves. There is no cancellation: the call runs on a context that
// ignores the caller's cancellation, and if nobody waits, its result is
// simply dropped. A nil *Fetch stands for a fetch that was never started.
type Fetch struct {
	// done is closed once records and err are final.
	done chan struct{}
	// records holds the backend result.
	records []history.AlarmRecord
	// err holds the backend failure, if any.
	err error
	// state is the current history.FetchState.
	state atomic.Int32
	// classify resolves the terminal state exactly once.
	classify sync.Once
}

// StartFetch runs backend.FetchHistoricalAlarms in a new goroutine.
func StartFetch(ctx context.Context, backend history.Backend, filter history.FetchFilter) *Fetch {
	f := &Fetch{
		done: make(chan struct{}),
	}

	f.state.Store(int32(history.FetchStarted))

	go f.run(context.WithoutCancel(ctx), backend, filter)

	return f
}

// run performs the single backend call and publishes its outcome.
func (f *Fetch) run(ctx context.Context, backend history.Backend, filter history.FetchFilter) {
	defer close(f.done)

	defer func() {
		if r := recover(); r != nil {
			f.records = nil
			f.err = fmt.Errorf("%w: %v", errBackendPanic, r)
		}
	}()

	f.records, f.err = backend.FetchHistoricalAlarms(ctx, filter)
}

// Wait blocks until the fetch resolves and returns the records with the
// terminal state. It is safe to call concurrently and repeatedly; every call
// observes the same outcome.
func (f *Fetch) Wait() ([]history.AlarmRecord, history.FetchState) {
	if f == nil {
		return nil, history.FetchIdle
	}

	f.state.CompareAndSwap(int32(history.FetchStarted), int32(history.FetchPending))

	<-f.done

	f.classify.Do(func() {
		switch {
		case f.err != nil:
			f.records = nil
			f.state.Store(int32(history.FetchFailed))
		case len(f.records) == 0:
			f.state.Store(int32(history.FetchEmpty))
		default:
			f.state.Store(int32(history.FetchReady))
		}
	})

	return f.records, f.State()
}

// State returns the current state without blocking.
func (f *Fetch) State() history.FetchState {
	if f == nil {
		return history.FetchIdle
	}

	return history.FetchState(f.state.Load())
}

// Err returns the backend failure once Wait has returned.
func (f *Fetch) Err() error {
	if f == nil || !f.State().Terminal() {
		return nil
	}

	return f.err
}
