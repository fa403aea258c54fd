package timeline

import (
	"context"
	"sync"
)

// Fetcher is implemented by the data-fetch collaborator. It returns a
// complete, ready-to-render Dataset or an error; the engine treats any error
// as "no update" and keeps the last good dataset.
type Fetcher interface {
	FetchFiles(ctx context.Context, f Filters) (*Dataset, error)
}

// LoadResult carries one fetch outcome plus the sequence number of the
// request that produced it.
type LoadResult struct {
	seq     uint64
	Dataset *Dataset
	Err     error
}

// Loader sequences dataset fetches so that results apply in issuance order.
// A boolean "loading" flag cannot express last-issued-wins under rapid
// successive filter changes: a slow early response would overwrite the
// dataset installed by a later request that resolved first. Sequence numbers
// make staleness checkable instead.
type Loader struct {
	mu      sync.Mutex
	fetcher Fetcher
	issued  uint64
	applied uint64
}

// NewLoader creates a loader backed by the given fetcher.
func NewLoader(fetcher Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load issues a new request and returns the function that performs it. The
// sequence number is assigned at issuance, before the fetch runs, so ordering
// is by request time regardless of completion order. The returned function
// blocks and is intended to run off the UI loop (for example as a tea.Cmd).
func (l *Loader) Load(ctx context.Context, filters Filters) func() LoadResult {
	l.mu.Lock()
	l.issued++
	seq := l.issued
	l.mu.Unlock()

	return func() LoadResult {
		ds, err := l.fetcher.FetchFiles(ctx, filters)
		return LoadResult{seq: seq, Dataset: ds, Err: err}
	}
}

// Apply installs a fetch result into the engine unless a result from a
// later-issued request has already been applied, in which case the stale
// result is discarded and Apply reports false. Failed fetches advance the
// sequence too — a stale success must not overwrite a newer failure's
// retained state — but leave the last good dataset in place, surfacing only
// the error indicator.
func (l *Loader) Apply(res LoadResult, e *Engine) bool {
	l.mu.Lock()
	if res.seq <= l.applied {
		l.mu.Unlock()
		return false
	}
	l.applied = res.seq
	l.mu.Unlock()

	if res.Err != nil {
		e.SetError(res.Err)
		return true
	}
	e.SetDataset(res.Dataset)
	return true
}

// Pending reports whether a request newer than the last applied result is
// outstanding.
func (l *Loader) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.issued > l.applied
}
