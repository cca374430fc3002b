//go:build !notesseract

package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"textscope/internal/image"
	"textscope/internal/ocr"
)

const tesseractAvailable = true

type GosseractEngine struct {
	images    *image.ImageProcessor
	languages []string
}

func NewGosseractEngine(languages []string) (*GosseractEngine, error) {
	return &GosseractEngine{images: image.NewImageProcessor(), languages: languages}, nil
}

func (g *GosseractEngine) Name() string { return "gosseract" }

// Recognize returns one observation per text line. A fresh client is used per
// call so concurrent recognitions never share tesseract state.
func (g *GosseractEngine) Recognize(ctx context.Context, req ocr.Request) ([]ocr.Observation, error) {
	gray := req.Image
	if req.Options.Level == ocr.LevelFast {
		var err error
		if gray, err = g.images.Downscale(gray); err != nil {
			return nil, fmt.Errorf("downscaling: %w", err)
		}
	}
	data, err := g.images.EncodePNG(gray)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	languages := req.Options.Languages
	if len(languages) == 0 {
		languages = g.languages
	}
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text lines: %w", err)
	}

	obs := make([]ocr.Observation, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		obs = append(obs, ocr.Observation{
			Bounds:     b.Box,
			Candidates: []ocr.Candidate{{Text: text, Confidence: b.Confidence / 100.0}},
		})
	}
	return ocr.FilterByHeight(obs, gray.Bounds().Dy(), req.Options.MinimumTextHeight), nil
}

func (g *GosseractEngine) Close() error {
	return nil
}
