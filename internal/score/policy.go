package score

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/judolscan/internal/lexicon"
	"github.com/ppiankov/judolscan/internal/model"
)

// Density-fusion constants used by web page checks
const (
	fusionKeywordWeight    = 0.6
	fusionClassifierWeight = 0.4
	fusionThreshold        = 0.6
	noKeywordConfidence    = 0.01
)

// Classifier is the probability source consulted by the policy
type Classifier interface {
	Score(ctx context.Context, text string) float64
	Available() bool
}

// Policy turns keyword evidence and classifier output into a verdict
type Policy struct {
	profile    *lexicon.Profile
	classifier Classifier
}

// NewPolicy creates a policy for a profile. classifier may be nil.
func NewPolicy(profile *lexicon.Profile, classifier Classifier) *Policy {
	return &Policy{profile: profile, classifier: classifier}
}

// Decide scores the keywords found in text for one modality.
// The classifier is only consulted when the active rule needs it.
func (p *Policy) Decide(ctx context.Context, modality model.Modality, keywords []string, text string) model.Verdict {
	rule := p.profile.Rule(modality)

	switch rule.Mode {
	case lexicon.ModeGated:
		return p.gated(ctx, rule, keywords, text)
	case lexicon.ModeDensity:
		return p.density(ctx, keywords, text)
	default:
		return p.tiers(ctx, rule, keywords, text)
	}
}

// DecideKeywords scores keyword evidence alone. Used when the remaining
// evidence is too thin for the classifier, as with metadata-only media checks.
func (p *Policy) DecideKeywords(modality model.Modality, keywords []string) model.Verdict {
	rule := p.profile.Rule(modality)
	if len(rule.Tiers) == 0 {
		rule.Tiers = lexicon.DefaultTiers
	}
	rule.Fallback = false
	return p.tiers(context.Background(), rule, keywords, "")
}

func (p *Policy) available() bool {
	return p.classifier != nil && p.classifier.Available()
}

// tiers prefers keyword evidence and falls back to the classifier only when
// nothing matched and the rule allows it
func (p *Policy) tiers(ctx context.Context, rule lexicon.Rule, keywords []string, text string) model.Verdict {
	count := len(keywords)
	if count > 0 {
		confidence, signal := tierConfidence(rule.Tiers, count)
		return model.Verdict{
			Status:     model.StatusGambling,
			Confidence: confidence,
			Keywords:   keywords,
			Method:     model.MethodKeywordTiers,
			Signals:    []model.Signal{signal},
		}
	}

	if !rule.Fallback {
		return negative(keywords, model.MethodNoEvidence, 0, model.Signal{
			Type:        model.SignalKeywordTiers,
			Severity:    model.SeverityInfo,
			Description: "No lexicon terms found",
			Data:        map[string]interface{}{"keyword_count": 0},
		})
	}

	if !p.available() || strings.TrimSpace(text) == "" {
		return negative(keywords, model.MethodNoEvidence, 0, degradedSignal("fallback skipped"))
	}

	prob := p.classifier.Score(ctx, text)
	status := model.StatusNotGambling
	if prob > rule.Threshold {
		status = model.StatusGambling
	}
	return model.Verdict{
		Status:     status,
		Confidence: prob,
		Keywords:   keywords,
		Method:     model.MethodClassifierFallback,
		Signals: []model.Signal{{
			Type:        model.SignalClassifier,
			Severity:    severityFor(status),
			Description: fmt.Sprintf("No keywords; classifier probability %.2f against threshold %.2f", prob, rule.Threshold),
			Data: map[string]interface{}{
				"probability": prob,
				"threshold":   rule.Threshold,
				"formula":     "gambling = probability > threshold",
			},
		}},
	}
}

// gated requires at least one keyword before the classifier is allowed to decide
func (p *Policy) gated(ctx context.Context, rule lexicon.Rule, keywords []string, text string) model.Verdict {
	count := len(keywords)
	if count == 0 {
		return negative(keywords, model.MethodNoEvidence, 0, model.Signal{
			Type:        model.SignalClassifier,
			Severity:    model.SeverityInfo,
			Description: "No lexicon terms found; classifier not consulted",
			Data:        map[string]interface{}{"keyword_count": 0},
		})
	}

	if !p.available() {
		v := negative(keywords, model.MethodNoEvidence, 0, model.Signal{
			Type:        model.SignalClassifier,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("%d keyword(s) found; classifier decision unavailable", count),
			Data:        map[string]interface{}{"keyword_count": count, "probability": 0.0},
		})
		v.Signals = append(v.Signals, degradedSignal("gated decision is negative"))
		return v
	}

	prob := p.classifier.Score(ctx, text)
	status := model.StatusNotGambling
	if prob > rule.Threshold {
		status = model.StatusGambling
	}
	return model.Verdict{
		Status:     status,
		Confidence: prob,
		Keywords:   keywords,
		Method:     model.MethodClassifierGated,
		Signals: []model.Signal{{
			Type:        model.SignalClassifier,
			Severity:    severityFor(status),
			Description: fmt.Sprintf("%d keyword(s) found; classifier probability %.2f", count, prob),
			Data: map[string]interface{}{
				"keyword_count": count,
				"probability":   prob,
				"threshold":     rule.Threshold,
				"formula":       "gambling = keyword_count >= 1 AND probability > threshold",
			},
		}},
	}
}

// density fuses keyword density per thousand words with the classifier
func (p *Policy) density(ctx context.Context, keywords []string, text string) model.Verdict {
	count := len(keywords)
	if count == 0 {
		return negative(keywords, model.MethodNoEvidence, noKeywordConfidence, model.Signal{
			Type:        model.SignalKeywordDensity,
			Severity:    model.SeverityInfo,
			Description: "No lexicon terms found on page",
			Data:        map[string]interface{}{"keyword_count": 0, "confidence": noKeywordConfidence},
		})
	}

	words := len(strings.Fields(text))
	base, densitySignal := densityConfidence(count, words)
	signals := []model.Signal{densitySignal}

	// Degraded: probability 0, so the fused score stays at or below 0.57
	prob := 0.0
	if p.available() {
		prob = p.classifier.Score(ctx, text)
	} else {
		signals = append(signals, degradedSignal("fused with probability 0"))
	}
	final := fusionKeywordWeight*base + fusionClassifierWeight*prob
	signals = append(signals, model.Signal{
		Type:        model.SignalFusion,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Fused keyword confidence %.2f with classifier probability %.2f", base, prob),
		Data: map[string]interface{}{
			"keyword_confidence": base,
			"probability":        prob,
			"final":              final,
			"formula":            "final = 0.6 * keyword_confidence + 0.4 * probability",
		},
	})

	status := model.StatusNotGambling
	if final > fusionThreshold {
		status = model.StatusGambling
	}
	return model.Verdict{
		Status:     status,
		Confidence: final,
		Keywords:   keywords,
		Method:     model.MethodDensityFusion,
		Signals:    signals,
	}
}

func tierConfidence(tiers lexicon.TierTable, count int) (float64, model.Signal) {
	confidence := tiers.Confidence(count)
	severity := model.SeverityWarning
	if count >= 3 {
		severity = model.SeverityCritical
	}
	return confidence, model.Signal{
		Type:        model.SignalKeywordTiers,
		Severity:    severity,
		Description: fmt.Sprintf("%d lexicon term(s) found", count),
		Data: map[string]interface{}{
			"keyword_count": count,
			"tiers":         []float64(tiers),
			"confidence":    confidence,
			"formula":       "confidence = tiers[min(keyword_count, len(tiers)-1)]",
		},
	}
}

// densityConfidence maps keywords per thousand words to a base confidence
func densityConfidence(count, words int) (float64, model.Signal) {
	if words < 1 {
		words = 1
	}
	density := float64(count) / float64(words) * 1000

	var base float64
	switch {
	case density > 10:
		base = 0.95
	case density > 5:
		base = 0.85
	case density > 2:
		base = 0.70
	default:
		base = 0.50
	}

	return base, model.Signal{
		Type:        model.SignalKeywordDensity,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d term(s) in %d words (%.2f per 1000)", count, words, density),
		Data: map[string]interface{}{
			"keyword_count":      count,
			"word_count":         words,
			"density":            density,
			"keyword_confidence": base,
			"formula":            "density = keyword_count / words * 1000; >10 -> 0.95, >5 -> 0.85, >2 -> 0.70, else 0.50",
		},
	}
}

func negative(keywords []string, method model.Method, confidence float64, signal model.Signal) model.Verdict {
	if keywords == nil {
		keywords = []string{}
	}
	return model.Verdict{
		Status:     model.StatusNotGambling,
		Confidence: confidence,
		Keywords:   keywords,
		Method:     method,
		Signals:    []model.Signal{signal},
	}
}

func degradedSignal(effect string) model.Signal {
	return model.Signal{
		Type:        model.SignalClassifierDegraded,
		Severity:    model.SeverityWarning,
		Description: "Classifier unavailable: " + effect,
	}
}

func severityFor(status model.Status) model.SignalSeverity {
	if status == model.StatusGambling {
		return model.SeverityCritical
	}
	return model.SeverityInfo
}
