package lexicon

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/judolscan/internal/model"
)

type term struct {
	word string
	re   *regexp.Regexp
}

type pattern struct {
	label string
	re    *regexp.Regexp
}

// Matcher finds lexicon terms in text. It is immutable and safe for concurrent use.
type Matcher struct {
	terms    []term
	patterns []pattern
}

// NewMatcher compiles one boundary-anchored expression per term
func NewMatcher(keywords []string, rules []PatternRule) (*Matcher, error) {
	m := &Matcher{}
	seen := make(map[string]bool, len(keywords))

	for _, kw := range keywords {
		word := strings.ToLower(strings.TrimSpace(kw))
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile keyword %q: %w", word, err)
		}
		m.terms = append(m.terms, term{word: word, re: re})
	}

	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", r.Label, err)
		}
		m.patterns = append(m.patterns, pattern{label: r.Label, re: re})
	}

	return m, nil
}

// ForProfile builds the matcher of a profile
func ForProfile(p *Profile) (*Matcher, error) {
	return NewMatcher(p.Keywords, p.Patterns)
}

// Find returns the sorted, deduplicated terms present in text
func (m *Matcher) Find(text string) []string {
	found := []string{}
	if strings.TrimSpace(text) == "" {
		return found
	}
	for _, t := range m.terms {
		if t.re.MatchString(text) {
			found = append(found, t.word)
		}
	}
	sort.Strings(found)
	return found
}

// FindPatterns returns the labels of pattern rules matching the lowercased text
func (m *Matcher) FindPatterns(text string) []string {
	found := []string{}
	if len(m.patterns) == 0 || text == "" {
		return found
	}
	lower := strings.ToLower(text)
	for _, p := range m.patterns {
		if p.re.MatchString(lower) {
			found = append(found, p.label)
		}
	}
	sort.Strings(found)
	return found
}

// FindIn matches every fragment and records the origin each term was first seen in
func (m *Matcher) FindIn(evidence model.EvidenceText) []model.KeywordMatch {
	var matches []model.KeywordMatch
	seen := make(map[string]bool)
	for _, f := range evidence {
		for _, word := range m.Find(f.Text) {
			if seen[word] {
				continue
			}
			seen[word] = true
			matches = append(matches, model.KeywordMatch{Term: word, Origin: f.Origin})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Term < matches[j].Term })
	return matches
}

// Terms returns the terms of a match set
func Terms(matches []model.KeywordMatch) []string {
	terms := make([]string, len(matches))
	for i, m := range matches {
		terms[i] = m.Term
	}
	return terms
}

// Merge unions keyword sets, returning a sorted deduplicated slice
func Merge(sets ...[]string) []string {
	seen := make(map[string]bool)
	merged := []string{}
	for _, set := range sets {
		for _, w := range set {
			if !seen[w] {
				seen[w] = true
				merged = append(merged, w)
			}
		}
	}
	sort.Strings(merged)
	return merged
}
