package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Level trades recognition accuracy for speed.
type Level int

const (
	LevelAccurate Level = iota
	LevelFast
)

func (l Level) String() string {
	if l == LevelFast {
		return "fast"
	}
	return "accurate"
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "accurate":
		return LevelAccurate, nil
	case "fast":
		return LevelFast, nil
	}
	return LevelAccurate, fmt.Errorf("unknown recognition level %q", s)
}

// DefaultMinimumTextHeight is the smallest text height, as a fraction of the
// image height, that recognizers report.
const DefaultMinimumTextHeight = 0.05

type Options struct {
	MinimumTextHeight float64
	Level             Level
	Languages         []string
}

func DefaultOptions() Options {
	return Options{MinimumTextHeight: DefaultMinimumTextHeight, Level: LevelAccurate}
}

// Intrinsics is a row-major 3x3 camera intrinsic matrix.
type Intrinsics [9]float64

// Request wraps one grayscale image for a single recognition call.
type Request struct {
	ID         string
	Seq        uint64
	Image      *image.Gray
	Intrinsics *Intrinsics
	Options    Options
}

type Candidate struct {
	Text       string
	Confidence float64
}

// Observation is one detected text region. Candidates are ordered best first.
type Observation struct {
	Bounds     image.Rectangle
	Candidates []Candidate
}

// TopCandidates returns at most n candidates, best first.
func (o Observation) TopCandidates(n int) []Candidate {
	if n > len(o.Candidates) {
		n = len(o.Candidates)
	}
	if n < 0 {
		n = 0
	}
	return o.Candidates[:n]
}

type Result struct {
	RequestID    string
	Seq          uint64
	Observations []Observation
	Error        error
}

type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, req Request) ([]Observation, error)
	Close() error
}

// FilterByHeight drops observations shorter than fraction of imageHeight.
// Observations without bounds are kept.
func FilterByHeight(obs []Observation, imageHeight int, fraction float64) []Observation {
	if fraction <= 0 || imageHeight <= 0 {
		return obs
	}
	minHeight := fraction * float64(imageHeight)
	kept := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Bounds.Empty() || float64(o.Bounds.Dy()) >= minHeight {
			kept = append(kept, o)
		}
	}
	return kept
}
