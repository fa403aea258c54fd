package timeline

// NoSelection is returned by Current and Hover when no valid index exists.
const NoSelection = -1

// Selection owns the single authoritative current-file index over a
// chronologically sorted list of length N, plus a transient hover index used
// for tooltip display. Navigation clamps at both ends; there is no
// wraparound. All operations are no-ops on an empty list. Selection is a UI
// affordance, not a data-integrity boundary: out-of-range arguments are
// clamped or ignored, never propagated as errors.
type Selection struct {
	n     int
	index int
	hover int
}

// NewSelection creates a selection over a list of n files. The first
// chronological file is selected when n >= 1.
func NewSelection(n int) *Selection {
	s := &Selection{}
	s.Reset(n)
	return s
}

// Reset re-initializes the selection for a replacement dataset of n files.
// The index returns to 0, or to no selection when the new dataset is empty.
func (s *Selection) Reset(n int) {
	if n < 0 {
		n = 0
	}
	s.n = n
	s.index = 0
	s.hover = NoSelection
}

// Len returns the list length the selection ranges over.
func (s *Selection) Len() int { return s.n }

// Current returns the selected index, or NoSelection for an empty list.
func (s *Selection) Current() int {
	if s.n == 0 {
		return NoSelection
	}
	return s.index
}

// Hover returns the transient hover index, or NoSelection.
func (s *Selection) Hover() int { return s.hover }

// SelectAt moves the selection to j, clamping out-of-range values to the
// valid range, and clears the hover index. It reports whether the selection
// changed, which is the view layer's cue to scroll the companion list so the
// item is visible.
func (s *Selection) SelectAt(j int) bool {
	if s.n == 0 {
		return false
	}
	if j < 0 {
		j = 0
	}
	if j > s.n-1 {
		j = s.n - 1
	}
	s.hover = NoSelection
	if j == s.index {
		return false
	}
	s.index = j
	return true
}

// Advance moves forward one file. Reaching the last file is terminal for
// forward navigation until a new dataset arrives or the user selects
// elsewhere.
func (s *Selection) Advance() bool {
	if s.n == 0 || s.index >= s.n-1 {
		return false
	}
	s.index++
	return true
}

// Retreat moves backward one file, clamped at 0.
func (s *Selection) Retreat() bool {
	if s.n == 0 || s.index <= 0 {
		return false
	}
	s.index--
	return true
}

// JumpToFirst selects index 0.
func (s *Selection) JumpToFirst() bool {
	return s.n > 0 && s.SelectAt(0)
}

// JumpToLast selects the final index.
func (s *Selection) JumpToLast() bool {
	return s.n > 0 && s.SelectAt(s.n-1)
}

// SetHover sets the transient hover index. Pass NoSelection (or call
// ClearHover) on pointer-leave. Out-of-range values clear the hover. The
// current index is unaffected.
func (s *Selection) SetHover(j int) {
	if j < 0 || j >= s.n {
		s.hover = NoSelection
		return
	}
	s.hover = j
}

// ClearHover clears the hover index.
func (s *Selection) ClearHover() {
	s.hover = NoSelection
}
