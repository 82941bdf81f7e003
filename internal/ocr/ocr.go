// Package ocr extracts text from images with external OCR engines.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/rs/zerolog/log"
)

// Engine reads the text printed on an encoded image
type Engine interface {
	Name() string
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Tesseract runs the tesseract CLI, streaming the image on stdin
type Tesseract struct {
	Binary    string
	Languages string
	PSM       int
	Timeout   time.Duration
}

// Name returns the engine name including its segmentation mode
func (t *Tesseract) Name() string {
	return fmt.Sprintf("tesseract-psm%d", t.PSM)
}

// ExtractText runs `tesseract stdin stdout --psm N -l langs`
func (t *Tesseract) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", errors.New("tesseract: empty image")
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	args := []string{"stdin", "stdout", "--psm", strconv.Itoa(t.PSM)}
	if t.Languages != "" {
		args = append(args, "-l", t.Languages)
	}

	cmd := exec.CommandContext(ctx, t.Binary, args...)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("tesseract: %w: %v", model.ErrCollaboratorUnavailable, err)
		}
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Multi runs several engines and joins their output. It fails only when
// every engine fails.
type Multi struct {
	engines []Engine
}

// NewMulti combines engines in order
func NewMulti(engines ...Engine) *Multi {
	return &Multi{engines: engines}
}

// Name returns the joined engine names
func (m *Multi) Name() string {
	names := make([]string, len(m.engines))
	for i, e := range m.engines {
		names[i] = e.Name()
	}
	return strings.Join(names, "+")
}

// ExtractText concatenates the distinct non-empty outputs
func (m *Multi) ExtractText(ctx context.Context, image []byte) (string, error) {
	var parts []string
	var errs []error
	seen := make(map[string]bool)

	for _, e := range m.engines {
		text, err := e.ExtractText(ctx, image)
		if err != nil {
			log.Debug().Err(err).Str("engine", e.Name()).Msg("ocr engine failed")
			errs = append(errs, err)
			continue
		}
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		parts = append(parts, text)
	}

	if len(errs) == len(m.engines) && len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return strings.Join(parts, " "), nil
}

// New builds the configured engine. Each entry of cfg.Engines is a
// tesseract page segmentation mode; more than one entry yields a Multi.
func New(cfg model.OCRConfig) (Engine, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = "tesseract"
	}

	modes := cfg.Engines
	if len(modes) == 0 {
		modes = []string{strconv.Itoa(cfg.PSM)}
	}

	var engines []Engine
	for _, mode := range modes {
		psm, err := strconv.Atoi(strings.TrimSpace(mode))
		if err != nil || psm < 0 || psm > 13 {
			return nil, fmt.Errorf("invalid ocr engine %q: expected a page segmentation mode 0-13", mode)
		}
		engines = append(engines, &Tesseract{
			Binary:    binary,
			Languages: cfg.Languages,
			PSM:       psm,
			Timeout:   cfg.Timeout,
		})
	}

	if len(engines) == 1 {
		return engines[0], nil
	}
	return NewMulti(engines...), nil
}
