package timeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubFetcher returns canned results keyed by query text.
type stubFetcher struct {
	results map[string]*Dataset
	err     error
}

func (s *stubFetcher) FetchFiles(_ context.Context, f Filters) (*Dataset, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results[f.Query], nil
}

func namedDataset(id string) *Dataset {
	return NewDataset([]FileRecord{
		rec(id, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}, Filters{Query: id}, 1)
}

func TestLoader_LastIssuedWins(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{results: map[string]*Dataset{
		"old": namedDataset("old"),
		"new": namedDataset("new"),
	}}
	loader := NewLoader(fetcher)
	e := NewEngine()

	first := loader.Load(context.Background(), Filters{Query: "old"})
	second := loader.Load(context.Background(), Filters{Query: "new"})

	// The later-issued request resolves first.
	secondRes := second()
	if !loader.Apply(secondRes, e) {
		t.Fatal("later-issued result must apply")
	}

	// The earlier request resolves afterwards; its result is stale.
	firstRes := first()
	if loader.Apply(firstRes, e) {
		t.Error("stale result from an earlier request must be discarded")
	}

	r, ok := e.Current()
	if !ok || r.ID != "new" {
		t.Errorf("engine holds %q, want dataset from the last-issued request", r.ID)
	}
}

func TestLoader_InOrderCompletionApplies(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{results: map[string]*Dataset{
		"a": namedDataset("a"),
		"b": namedDataset("b"),
	}}
	loader := NewLoader(fetcher)
	e := NewEngine()

	resA := loader.Load(context.Background(), Filters{Query: "a"})()
	if !loader.Apply(resA, e) {
		t.Fatal("first result must apply")
	}
	resB := loader.Load(context.Background(), Filters{Query: "b"})()
	if !loader.Apply(resB, e) {
		t.Fatal("second result must apply")
	}

	if r, _ := e.Current(); r.ID != "b" {
		t.Errorf("engine holds %q, want b", r.ID)
	}
}

func TestLoader_FailureKeepsLastGoodDataset(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{results: map[string]*Dataset{"good": namedDataset("good")}}
	loader := NewLoader(fetcher)
	e := NewEngine()

	if !loader.Apply(loader.Load(context.Background(), Filters{Query: "good"})(), e) {
		t.Fatal("initial load must apply")
	}

	fetcher.err = errors.New("connection refused")
	res := loader.Load(context.Background(), Filters{Query: "good"})()
	if !loader.Apply(res, e) {
		t.Fatal("a fresh failure still advances the applied sequence")
	}

	snap := e.Snapshot()
	if snap.Err == nil {
		t.Error("failure must surface an error state")
	}
	if len(snap.Files) != 1 || snap.Files[0].ID != "good" {
		t.Error("failure must retain the previously successful dataset")
	}
}

func TestLoader_StaleSuccessCannotOverwriteNewerFailure(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{results: map[string]*Dataset{"x": namedDataset("x")}}
	loader := NewLoader(fetcher)
	e := NewEngine()

	slow := loader.Load(context.Background(), Filters{Query: "x"})

	fetcher.err = errors.New("boom")
	fast := loader.Load(context.Background(), Filters{Query: "x"})()
	loader.Apply(fast, e)

	fetcher.err = nil
	if loader.Apply(slow(), e) {
		t.Error("stale success applied over a newer failure")
	}
	if e.Snapshot().Err == nil {
		t.Error("newer failure state must survive the stale success")
	}
}

func TestLoader_Pending(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{results: map[string]*Dataset{"q": namedDataset("q")}}
	loader := NewLoader(fetcher)
	e := NewEngine()

	if loader.Pending() {
		t.Error("Pending() = true before any load")
	}
	run := loader.Load(context.Background(), Filters{Query: "q"})
	if !loader.Pending() {
		t.Error("Pending() = false with an outstanding request")
	}
	loader.Apply(run(), e)
	if loader.Pending() {
		t.Error("Pending() = true after the result applied")
	}
}
