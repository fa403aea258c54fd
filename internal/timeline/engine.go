package timeline

import (
	"sort"
	"time"
)

// Engine composes the axis derivations and selection state into the single
// structure the view layer renders from. Dataset-scoped work (time bounds,
// day buckets, chronological order, positions) runs once per dataset
// identity; tick generation runs once per (dataset, resolution) pair.
// Repeated renders with an unchanged dataset never re-run the O(N) scans.
//
// The engine performs no I/O and, selection aside, holds no mutable state
// that input events race over: it is driven synchronously from a single event
// dispatcher.
type Engine struct {
	dataset    *Dataset
	resolution Resolution

	ordered   []FileRecord
	bounds    TimeBounds
	buckets   DateBuckets
	badges    map[string]int
	ticks     TickSet
	tickPos   []float64
	positions map[string]float64

	sel     *Selection
	loadErr error
}

// NewEngine creates an engine with no dataset and day resolution, the
// default granularity of the resolution switcher.
func NewEngine() *Engine {
	return &Engine{
		resolution: ResolutionDay,
		sel:        NewSelection(0),
	}
}

// SetDataset installs a replacement dataset and recomputes all derived
// state. Comparison is by identity: passing the pointer already installed is
// a no-op, which is what makes render-triggered calls free. A successful
// load clears any previous fetch error.
func (e *Engine) SetDataset(d *Dataset) {
	if d == e.dataset {
		return
	}
	e.dataset = d
	e.loadErr = nil

	var records []FileRecord
	if d != nil {
		records = d.Records
	}

	e.ordered = make([]FileRecord, len(records))
	copy(e.ordered, records)
	sort.SliceStable(e.ordered, func(i, j int) bool {
		return e.ordered[i].CreatedAt.Before(e.ordered[j].CreatedAt)
	})

	e.bounds = TimeRange(e.ordered)
	e.buckets = GroupByDay(e.ordered)
	e.badges = e.buckets.Counts()
	e.positions = make(map[string]float64, len(e.ordered))
	for _, r := range e.ordered {
		if r.HasValidTime() {
			e.positions[r.ID] = Position(r.CreatedAt.UTC(), e.bounds)
		}
	}
	e.regenerateTicks()
	e.sel.Reset(len(e.ordered))
}

func (e *Engine) regenerateTicks() {
	e.ticks = GenerateTicks(e.bounds, e.resolution)
	e.tickPos = make([]float64, len(e.ticks.Ticks))
	for i, t := range e.ticks.Ticks {
		e.tickPos[i] = Position(t, e.bounds)
	}
}

// SetResolution switches tick granularity and regenerates the tick set.
// Ticks are never cached across resolution changes; everything else is
// untouched.
func (e *Engine) SetResolution(r Resolution) {
	if r == e.resolution {
		return
	}
	e.resolution = r
	e.regenerateTicks()
}

// SetError records a failed fetch. The last good dataset and all state
// derived from it are retained; stale-but-available beats no data.
func (e *Engine) SetError(err error) {
	e.loadErr = err
}

// Dataset returns the currently installed dataset, nil before the first load.
func (e *Engine) Dataset() *Dataset { return e.dataset }

// Resolution returns the current tick granularity.
func (e *Engine) Resolution() Resolution { return e.resolution }

// Selection commands. These delegate to the one piece of mutable state and
// are the only way rendering-adjacent code may move the index.

func (e *Engine) SelectAt(j int) bool { return e.sel.SelectAt(j) }
func (e *Engine) Advance() bool       { return e.sel.Advance() }
func (e *Engine) Retreat() bool       { return e.sel.Retreat() }
func (e *Engine) JumpToFirst() bool   { return e.sel.JumpToFirst() }
func (e *Engine) JumpToLast() bool    { return e.sel.JumpToLast() }
func (e *Engine) SetHover(j int)      { e.sel.SetHover(j) }
func (e *Engine) ClearHover()         { e.sel.ClearHover() }

// Current returns the selected record and true, or a zero record and false
// when the dataset is empty.
func (e *Engine) Current() (FileRecord, bool) {
	i := e.sel.Current()
	if i == NoSelection {
		return FileRecord{}, false
	}
	return e.ordered[i], true
}

// Snapshot is the read-only view the rendering layer consumes. Everything in
// it is precomputed; rendering must not re-derive axis bounds per
// interaction.
type Snapshot struct {
	Files        []FileRecord
	CurrentIndex int
	HoverIndex   int
	Bounds       TimeBounds
	Resolution   Resolution
	Ticks        []time.Time
	TickPos      []float64
	TicksCapped  bool
	Positions    map[string]float64
	BadgeCounts  map[string]int
	Buckets      DateBuckets
	Err          error
}

// Snapshot assembles the current render state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Files:        e.ordered,
		CurrentIndex: e.sel.Current(),
		HoverIndex:   e.sel.Hover(),
		Bounds:       e.bounds,
		Resolution:   e.resolution,
		Ticks:        e.ticks.Ticks,
		TickPos:      e.tickPos,
		TicksCapped:  e.ticks.Capped,
		Positions:    e.positions,
		BadgeCounts:  e.badges,
		Buckets:      e.buckets,
		Err:          e.loadErr,
	}
}
