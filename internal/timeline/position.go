package timeline

import "time"

// Position maps a timestamp to its proportional position on the axis as a
// percentage in [0, 100]. The zero-width case is an explicit branch: when
// bounds are degenerate every input collapses to 0 rather than producing NaN.
// Inputs outside the bounds clamp to the nearest edge; bounds computed from a
// stale render pass are a rendering artifact, not an error.
func Position(t time.Time, b TimeBounds) float64 {
	if b.Degenerate() {
		return 0
	}
	p := float64(t.Sub(b.Start)) / float64(b.End.Sub(b.Start)) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
