package classifier

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const tokenizerJSON = `{
  "class_name": "Tokenizer",
  "config": {
    "num_words": 6,
    "filters": "!\"#$%&()*+,-./:;<=>?@[\\]^_` + "`" + `{|}~\t\n",
    "lower": true,
    "split": " ",
    "char_level": false,
    "oov_token": "<OOV>",
    "document_count": 3,
    "word_index": "{\"<OOV>\": 1, \"slot\": 2, \"judi\": 3, \"online\": 4, \"gacor\": 5, \"maxwin\": 6}"
  }
}`

func writeTokenizer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	if err := os.WriteFile(path, []byte(tokenizerJSON), 0644); err != nil {
		t.Fatalf("write tokenizer: %v", err)
	}
	return path
}

func TestTokenizer_Sequence(t *testing.T) {
	tok, err := LoadTokenizer(writeTokenizer(t))
	if err != nil {
		t.Fatalf("LoadTokenizer: %v", err)
	}

	tests := []struct {
		name string
		text string
		want []int
	}{
		{"known words", "slot judi online", []int{2, 3, 4}},
		{"lowercased", "SLOT Gacor", []int{2, 5}},
		{"filters split words", "slot,judi!online", []int{2, 3, 4}},
		{"unknown to oov", "slot baru", []int{2, 1}},
		{"past num_words to oov", "maxwin", []int{1}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tok.Sequence(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sequence(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizer_NoOOVDropsUnknown(t *testing.T) {
	doc := `{"config": {"filters": "", "lower": true, "split": " ", "word_index": "{\"slot\": 1}"}}`
	tok, err := ParseTokenizer([]byte(doc))
	if err != nil {
		t.Fatalf("ParseTokenizer: %v", err)
	}
	if got := tok.Sequence("slot baru slot"); !reflect.DeepEqual(got, []int{1, 1}) {
		t.Errorf("Sequence() = %v", got)
	}
}

func TestParseTokenizer_Errors(t *testing.T) {
	for _, doc := range []string{`not json`, `{"config": {}}`, `{"config": {"word_index": "nope"}}`} {
		if _, err := ParseTokenizer([]byte(doc)); err == nil {
			t.Errorf("ParseTokenizer(%q) expected error", doc)
		}
	}
	if _, err := LoadTokenizer(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadTokenizer expected error for missing file")
	}
}

func TestPad(t *testing.T) {
	if got := Pad([]int{1, 2}, 4); !reflect.DeepEqual(got, []int{1, 2, 0, 0}) {
		t.Errorf("Pad() = %v", got)
	}
	if got := Pad([]int{1, 2, 3, 4, 5}, 3); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Pad() truncate = %v", got)
	}
	if got := Pad(nil, 2); !reflect.DeepEqual(got, []int{0, 0}) {
		t.Errorf("Pad(nil) = %v", got)
	}
}
