package lexicon

import "fmt"

// TierTable maps a keyword count to a confidence. Index i holds the
// confidence for i keywords; counts past the end use the last entry.
type TierTable []float64

// Confidence returns the tier value for count keywords
func (t TierTable) Confidence(count int) float64 {
	if len(t) == 0 || count <= 0 {
		return 0
	}
	if count >= len(t) {
		return t[len(t)-1]
	}
	return t[count]
}

// Validate checks the table starts at 0, stays in [0,1] and never decreases
func (t TierTable) Validate() error {
	if len(t) < 2 {
		return fmt.Errorf("need at least 2 tiers, got %d", len(t))
	}
	if t[0] != 0 {
		return fmt.Errorf("tier 0 must be 0, got %.2f", t[0])
	}
	for i, v := range t {
		if v < 0 || v > 1 {
			return fmt.Errorf("tier %d = %.2f outside [0,1]", i, v)
		}
		if i > 0 && v < t[i-1] {
			return fmt.Errorf("tier %d = %.2f below tier %d = %.2f", i, v, i-1, t[i-1])
		}
	}
	return nil
}
