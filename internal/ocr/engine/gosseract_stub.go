//go:build notesseract

package engine

import (
	"context"
	"errors"

	"textscope/internal/ocr"
)

// ErrTesseractUnavailable is returned when the binary was built with the
// notesseract tag.
var ErrTesseractUnavailable = errors.New("tesseract support not compiled in (build without -tags=notesseract)")

const tesseractAvailable = false

type GosseractEngine struct{}

func NewGosseractEngine(languages []string) (*GosseractEngine, error) {
	return nil, ErrTesseractUnavailable
}

func (g *GosseractEngine) Name() string { return "gosseract" }

func (g *GosseractEngine) Recognize(ctx context.Context, req ocr.Request) ([]ocr.Observation, error) {
	return nil, ErrTesseractUnavailable
}

func (g *GosseractEngine) Close() error { return nil }
