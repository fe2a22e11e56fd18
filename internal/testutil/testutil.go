// Package testutil provides shared fakes and helpers for package tests.
package testutil

import (
	"context"
	"sync/atomic"

	"github.com/UIDickinson/EE-RI-Bot/core"
)

// StubAdapter is a scripted core.LookupAdapter for tests. A configured
// number of leading calls can fail transiently before the scripted results
// are served, which exercises retry paths.
type StubAdapter struct {
	name string

	results []core.SearchResult
	records map[string]core.Record

	searchErr         error
	lookupErr         error
	transientFailures int64

	searchCalls int64
	lookupCalls int64
}

var _ core.LookupAdapter = (*StubAdapter)(nil)

// NewStubAdapter creates a stub reporting the given adapter name.
func NewStubAdapter(name string) *StubAdapter {
	return &StubAdapter{
		name:    name,
		records: make(map[string]core.Record),
	}
}

// WithResults sets the search results served after any scripted failures.
func (a *StubAdapter) WithResults(results ...core.SearchResult) *StubAdapter {
	a.results = results
	return a
}

// WithRecord scripts a lookup record for an ID.
func (a *StubAdapter) WithRecord(id string, rec core.Record) *StubAdapter {
	a.records[id] = rec
	return a
}

// FailWith makes every Search and Lookup return err.
func (a *StubAdapter) FailWith(err error) *StubAdapter {
	a.searchErr = err
	a.lookupErr = err
	return a
}

// TransientFailures makes the first n calls fail with a transient error
// before scripted behavior resumes.
func (a *StubAdapter) TransientFailures(n int) *StubAdapter {
	atomic.StoreInt64(&a.transientFailures, int64(n))
	return a
}

// Name implements core.Adapter.
func (a *StubAdapter) Name() string { return a.name }

// Search implements core.Adapter.
func (a *StubAdapter) Search(ctx context.Context, _ string) ([]core.SearchResult, error) {
	atomic.AddInt64(&a.searchCalls, 1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.takeTransient(); err != nil {
		return nil, err
	}
	if a.searchErr != nil {
		return nil, a.searchErr
	}

	out := make([]core.SearchResult, len(a.results))
	copy(out, a.results)

	return out, nil
}

// Lookup implements core.LookupAdapter.
func (a *StubAdapter) Lookup(ctx context.Context, id string) (core.Record, error) {
	atomic.AddInt64(&a.lookupCalls, 1)

	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	if err := a.takeTransient(); err != nil {
		return core.Record{}, err
	}
	if a.lookupErr != nil {
		return core.Record{}, a.lookupErr
	}

	rec, ok := a.records[id]
	if !ok {
		return core.Record{}, core.Transient(context.DeadlineExceeded)
	}

	return rec, nil
}

// SearchCalls returns how many times Search was invoked.
func (a *StubAdapter) SearchCalls() int { return int(atomic.LoadInt64(&a.searchCalls)) }

// LookupCalls returns how many times Lookup was invoked.
func (a *StubAdapter) LookupCalls() int { return int(atomic.LoadInt64(&a.lookupCalls)) }

func (a *StubAdapter) takeTransient() error {
	for {
		n := atomic.LoadInt64(&a.transientFailures)
		if n <= 0 {
			return nil
		}
		if atomic.CompareAndSwapInt64(&a.transientFailures, n, n-1) {
			return core.Transient(context.DeadlineExceeded)
		}
	}
}

// Paper builds a search result with the fields tests usually assert on.
func Paper(title, source string) core.SearchResult {
	return core.SearchResult{
		ID:      core.NewID(),
		Title:   title,
		Snippet: "Abstract for " + title,
		Authors: []string{"A. Author"},
		Year:    "2024",
		Source:  source,
	}
}

// CollectEvents drains an event channel until it closes and returns all
// received events in order.
func CollectEvents(ch <-chan core.Event) []core.Event {
	var events []core.Event
	for ev := range ch {
		events = append(events, ev)
	}

	return events
}

// TerminalEvent returns the last event if it is terminal, or false.
func TerminalEvent(events []core.Event) (core.Event, bool) {
	if len(events) == 0 {
		return core.Event{}, false
	}
	last := events[len(events)-1]

	return last, last.IsTerminal()
}

// StageEvents filters the stage-progress events out of a collected stream.
func StageEvents(events []core.Event) []core.Event {
	var out []core.Event
	for _, ev := range events {
		if !ev.IsTerminal() {
			out = append(out, ev)
		}
	}

	return out
}
