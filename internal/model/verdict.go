package model

import "fmt"

// Status is the binary outcome of a check
type Status string

const (
	StatusGambling    Status = "gambling"
	StatusNotGambling Status = "not_gambling"
)

// Method names the scoring rule that produced a verdict
type Method string

const (
	MethodKeywordTiers       Method = "keyword_tiers"       // Count-tiered keyword confidence
	MethodClassifierFallback Method = "classifier_fallback" // No keywords, classifier probability used
	MethodDensityFusion      Method = "density_fusion"      // Keyword density fused with classifier
	MethodClassifierGated    Method = "classifier_gated"    // Keywords required, classifier decides
	MethodNoEvidence         Method = "no_evidence"         // Nothing to score
)

// Modality identifies the kind of input being checked
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
	ModalityURL   Modality = "url"
	ModalityMedia Modality = "media"
)

// Verdict is the immutable outcome of one check
type Verdict struct {
	Status     Status
	Confidence float64
	Keywords   []string
	Method     Method
	Signals    []Signal
}

// IsGambling reports whether the verdict is positive
func (v Verdict) IsGambling() bool {
	return v.Status == StatusGambling
}

// FormatConfidence renders a probability as a percentage string ("55.00%")
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.2f%%", c*100)
}

// Signal explains one scoring rule with the data it used
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a scoring signal
type SignalType string

const (
	SignalKeywordTiers       SignalType = "keyword_tiers"
	SignalKeywordDensity     SignalType = "keyword_density"
	SignalClassifier         SignalType = "classifier"
	SignalClassifierDegraded SignalType = "classifier_degraded"
	SignalFusion             SignalType = "fusion"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
