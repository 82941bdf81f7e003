package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/judolscan/internal/model"
)

// collect gathers the fragments of successful steps in step order,
// whitespace collapsed and empty fragments dropped
func collect(outcomes []model.StepOutcome) model.EvidenceText {
	var ev model.EvidenceText
	for _, o := range outcomes {
		if o.State != model.StepSuccess {
			continue
		}
		for _, f := range o.Fragments {
			text := strings.Join(strings.Fields(f.Text), " ")
			if text == "" {
				continue
			}
			f.Text = text
			ev = append(ev, f)
		}
	}
	return ev
}

func reports(outcomes []model.StepOutcome) []model.StepReport {
	if len(outcomes) == 0 {
		return nil
	}
	out := make([]model.StepReport, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Report()
	}
	return out
}

// head returns at most n runes of s
func head(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// preview is head with an ellipsis marking truncation
func preview(s string, n int) string {
	if h := head(s, n); h != s {
		return h + "..."
	}
	return s
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
