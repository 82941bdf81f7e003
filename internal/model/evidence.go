package model

import "strings"

// Origin tags where a text fragment came from
type Origin string

const (
	OriginInput    Origin = "input"    // Text supplied directly by the caller
	OriginOCR      Origin = "ocr"      // Image or video-frame OCR
	OriginASR      Origin = "asr"      // Audio transcription
	OriginHTML     Origin = "html"     // Visible web page text
	OriginMetadata Origin = "metadata" // Remote media title/description/tags
)

// Fragment is one piece of extracted text
type Fragment struct {
	Origin Origin `json:"origin"`
	Source string `json:"source,omitempty"` // e.g. "frame:12", "title", "audio"
	Text   string `json:"text"`
}

// EvidenceText is the ordered text extracted from one input.
// It is built once per request and never modified afterwards.
type EvidenceText []Fragment

// Join concatenates every fragment with a single space
func (e EvidenceText) Join() string {
	return e.join(" ", nil)
}

// JoinOrigin concatenates fragments of one origin using sep
func (e EvidenceText) JoinOrigin(origin Origin, sep string) string {
	return e.join(sep, func(f Fragment) bool { return f.Origin == origin })
}

// BySource returns the text of the first fragment with the given source
func (e EvidenceText) BySource(source string) string {
	for _, f := range e {
		if f.Source == source {
			return f.Text
		}
	}
	return ""
}

func (e EvidenceText) join(sep string, keep func(Fragment) bool) string {
	parts := make([]string, 0, len(e))
	for _, f := range e {
		if keep != nil && !keep(f) {
			continue
		}
		if t := strings.TrimSpace(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}

// KeywordMatch records one matched lexicon term and the origin it was first seen in
type KeywordMatch struct {
	Term   string `json:"term"`
	Origin Origin `json:"origin"`
}
