package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ppiankov/judolscan/internal/model"
)

// fakeBinary writes an executable shell script standing in for tesseract
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script binaries require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func TestTesseract_ExtractText(t *testing.T) {
	bin := fakeBinary(t, `cat >/dev/null
echo "args: $*"
echo "SLOT GACOR"
`)
	engine := &Tesseract{Binary: bin, Languages: "ind+eng", PSM: 6}

	text, err := engine.ExtractText(context.Background(), []byte("png-bytes"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "args: stdin stdout --psm 6 -l ind+eng") {
		t.Errorf("unexpected arguments in %q", text)
	}
	if !strings.HasSuffix(text, "SLOT GACOR") {
		t.Errorf("unexpected output %q", text)
	}
}

func TestTesseract_Failure(t *testing.T) {
	bin := fakeBinary(t, `echo "Error in pixReadStream" >&2
exit 1
`)
	engine := &Tesseract{Binary: bin, PSM: 6}

	_, err := engine.ExtractText(context.Background(), []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "pixReadStream") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestTesseract_MissingBinary(t *testing.T) {
	engine := &Tesseract{Binary: filepath.Join(t.TempDir(), "missing"), PSM: 6}
	_, err := engine.ExtractText(context.Background(), []byte("x"))
	if !errors.Is(err, model.ErrCollaboratorUnavailable) {
		t.Errorf("expected ErrCollaboratorUnavailable, got %v", err)
	}
}

func TestTesseract_EmptyImage(t *testing.T) {
	engine := &Tesseract{Binary: "tesseract", PSM: 6}
	if _, err := engine.ExtractText(context.Background(), nil); err == nil {
		t.Error("expected error for empty image")
	}
}

type stubEngine struct {
	name string
	text string
	err  error
}

func (s stubEngine) Name() string { return s.name }

func (s stubEngine) ExtractText(ctx context.Context, image []byte) (string, error) {
	return s.text, s.err
}

func TestMulti_ExtractText(t *testing.T) {
	tests := []struct {
		name    string
		engines []Engine
		want    string
		wantErr bool
	}{
		{
			name:    "joins distinct outputs",
			engines: []Engine{stubEngine{"a", "slot gacor", nil}, stubEngine{"b", "bonus 100", nil}},
			want:    "slot gacor bonus 100",
		},
		{
			name:    "drops duplicates",
			engines: []Engine{stubEngine{"a", "slot", nil}, stubEngine{"b", "slot", nil}},
			want:    "slot",
		},
		{
			name:    "partial failure keeps text",
			engines: []Engine{stubEngine{"a", "", errors.New("crash")}, stubEngine{"b", "judi", nil}},
			want:    "judi",
		},
		{
			name:    "all fail",
			engines: []Engine{stubEngine{"a", "", errors.New("x")}, stubEngine{"b", "", errors.New("y")}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMulti(tt.engines...).ExtractText(context.Background(), []byte("img"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	engine, err := New(model.OCRConfig{Languages: "ind", PSM: 6})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if engine.Name() != "tesseract-psm6" {
		t.Errorf("Name() = %s", engine.Name())
	}

	engine, err = New(model.OCRConfig{Engines: []string{"6", "11"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if engine.Name() != "tesseract-psm6+tesseract-psm11" {
		t.Errorf("Name() = %s", engine.Name())
	}

	if _, err := New(model.OCRConfig{Engines: []string{"easyocr"}}); err == nil {
		t.Error("expected error for unknown engine")
	}
}
