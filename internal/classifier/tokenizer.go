package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Tokenizer reproduces a Keras text tokenizer exported with tokenizer.to_json()
type Tokenizer struct {
	wordIndex map[string]int
	numWords  int
	filters   string
	lower     bool
	split     string
	oovIndex  int // Zero when the tokenizer has no OOV token
}

type kerasTokenizerJSON struct {
	ClassName string `json:"class_name"`
	Config    struct {
		NumWords  *int    `json:"num_words"`
		Filters   string  `json:"filters"`
		Lower     bool    `json:"lower"`
		Split     string  `json:"split"`
		OOVToken  *string `json:"oov_token"`
		WordIndex string  `json:"word_index"` // JSON-encoded map inside the JSON document
	} `json:"config"`
}

// LoadTokenizer reads a Keras tokenizer JSON file
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}
	return ParseTokenizer(data)
}

// ParseTokenizer decodes a Keras tokenizer JSON document
func ParseTokenizer(data []byte) (*Tokenizer, error) {
	var raw kerasTokenizerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}
	if raw.Config.WordIndex == "" {
		return nil, fmt.Errorf("parse tokenizer: missing word_index")
	}

	var index map[string]int
	if err := json.Unmarshal([]byte(raw.Config.WordIndex), &index); err != nil {
		return nil, fmt.Errorf("parse tokenizer word_index: %w", err)
	}

	t := &Tokenizer{
		wordIndex: index,
		filters:   raw.Config.Filters,
		lower:     raw.Config.Lower,
		split:     raw.Config.Split,
	}
	if t.split == "" {
		t.split = " "
	}
	if raw.Config.NumWords != nil {
		t.numWords = *raw.Config.NumWords
	}
	if raw.Config.OOVToken != nil {
		t.oovIndex = index[*raw.Config.OOVToken]
	}
	return t, nil
}

// Sequence converts text to word indices the way texts_to_sequences does
func (t *Tokenizer) Sequence(text string) []int {
	if t.lower {
		text = strings.ToLower(text)
	}
	if t.filters != "" {
		text = strings.Map(func(r rune) rune {
			if strings.ContainsRune(t.filters, r) {
				// Keras translates filtered characters to the split string
				return []rune(t.split)[0]
			}
			return r
		}, text)
	}

	var seq []int
	for _, word := range strings.Split(text, t.split) {
		if word == "" {
			continue
		}
		i, ok := t.wordIndex[word]
		switch {
		case ok && (t.numWords == 0 || i < t.numWords):
			seq = append(seq, i)
		case t.oovIndex != 0:
			seq = append(seq, t.oovIndex)
		}
	}
	return seq
}

// Pad post-pads with zeros or post-truncates seq to length
func Pad(seq []int, length int) []int {
	out := make([]int, length)
	copy(out, seq)
	return out
}
