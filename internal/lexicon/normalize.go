package lexicon

import "strings"

// substitutions undo the digit-for-letter swaps OCR makes on stylised banners
var substitutions = strings.NewReplacer(
	"0", "o",
	"1", "i",
	"3", "e",
	"4", "a",
	"5", "s",
	"8", "b",
	"9", "g",
)

// Normalizer cleans OCR output before keyword matching
type Normalizer struct {
	corrections []Correction
}

// NewNormalizer creates a normalizer applying corrections in order
func NewNormalizer(corrections []Correction) *Normalizer {
	return &Normalizer{corrections: append([]Correction(nil), corrections...)}
}

// Normalize lowercases, substitutes digits, strips punctuation and applies
// the correction table. It never fails; empty input yields "".
func (n *Normalizer) Normalize(raw string) string {
	text := Clean(raw)
	for _, c := range n.corrections {
		if c.From == "" {
			continue
		}
		text = strings.ReplaceAll(text, c.From, c.To)
	}
	return text
}

// Clean runs the substitution and whitespace passes only. Clean is idempotent.
func Clean(raw string) string {
	text := substitutions.Replace(strings.ToLower(raw))

	text = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return ' '
		}
	}, text)

	return strings.Join(strings.Fields(text), " ")
}
