package pipeline

import (
	"context"
	"fmt"
	stdimage "image"
	"sync/atomic"
	"time"

	"textscope/internal/capture"
	"textscope/internal/display"
	"textscope/internal/image"
	"textscope/internal/logger"
	"textscope/internal/ocr"
)

// DefaultMinInterval is the throttle applied after a successful attempt.
const DefaultMinInterval = 2 * time.Second

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Submitter accepts a recognition request and reports its outcome later.
type Submitter interface {
	Submit(req ocr.Request, done func(ocr.Result)) error
}

type Stats struct {
	Processed uint64
	Dropped   uint64
	Submitted uint64
	Failed    uint64
}

// Processor turns delivered frames into recognition requests and folds the
// results into a display cell.
//
// ProcessFrame must be called from a single goroutine, the one delivering
// frames. Completions may arrive on any goroutine.
type Processor struct {
	images      *image.ImageProcessor
	submitter   Submitter
	cell        *display.Cell
	clock       Clock
	minInterval time.Duration
	options     ocr.Options

	lastProcessed time.Time

	processed atomic.Uint64
	dropped   atomic.Uint64
	submitted atomic.Uint64
	failed    atomic.Uint64
}

type Option func(*Processor)

func WithClock(c Clock) Option {
	return func(p *Processor) { p.clock = c }
}

func WithMinInterval(d time.Duration) Option {
	return func(p *Processor) { p.minInterval = d }
}

func WithOptions(o ocr.Options) Option {
	return func(p *Processor) { p.options = o }
}

func NewProcessor(submitter Submitter, cell *display.Cell, opts ...Option) *Processor {
	p := &Processor{
		images:      image.NewImageProcessor(),
		submitter:   submitter,
		cell:        cell,
		clock:       systemClock{},
		minInterval: DefaultMinInterval,
		options:     ocr.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessFrame applies the throttle and, if the frame passes, submits it for
// recognition without waiting for the result.
//
// After a clean attempt frames are skipped until minInterval has elapsed
// since the last processed one. While an error is shown every frame is
// processed so recovery is quick.
func (p *Processor) ProcessFrame(f capture.Frame) {
	now := p.clock.Now()
	if !p.cell.HasError() && !p.lastProcessed.IsZero() && now.Sub(p.lastProcessed) < p.minInterval {
		return
	}
	p.lastProcessed = now
	p.processed.Add(1)

	gray, err := p.prepare(f)
	if err != nil {
		// nothing to process
		logger.DebugLog("[processFrame]: dropping frame %d: %v", f.Seq, err)
		p.dropped.Add(1)
		return
	}

	req := ocr.Request{
		ID:         f.ID,
		Seq:        f.Seq,
		Image:      gray,
		Intrinsics: f.Intrinsics,
		Options:    p.options,
	}

	// Cleared before submitting: the completion may run before Submit returns.
	p.cell.ClearError()
	if err := p.submitter.Submit(req, p.onRecognized); err != nil {
		logger.DebugLog("[processFrame]: submitting frame %d: %v", f.Seq, err)
		p.failed.Add(1)
		p.cell.SetError(f.Seq, fmt.Errorf("submitting recognition: %w", err))
		return
	}
	p.submitted.Add(1)
	logger.DebugLog("[processFrame]: submitted frame %d (%s)", f.Seq, f.ID)
}

func (p *Processor) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		Dropped:   p.dropped.Load(),
		Submitted: p.submitted.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *Processor) prepare(f capture.Frame) (*stdimage.Gray, error) {
	img, err := f.StaticImage(p.images)
	if err != nil {
		return nil, err
	}
	img, err = p.images.Rotate(img, f.RotationAngle)
	if err != nil {
		return nil, err
	}
	return p.images.Grayscale(img)
}

func (p *Processor) onRecognized(res ocr.Result) {
	if res.Error != nil {
		logger.DebugLog("[onRecognized]: request %s failed: %v", res.RequestID, res.Error)
		p.failed.Add(1)
		if !p.cell.SetError(res.Seq, res.Error) {
			logger.DebugLog("[onRecognized]: dropped stale error for frame %d", res.Seq)
		}
		return
	}
	if !p.cell.SetText(res.Seq, Aggregate(res.Observations)) {
		logger.DebugLog("[onRecognized]: dropped stale result for frame %d", res.Seq)
	}
}

// Recognize runs one synchronous grayscale + recognize pass over img.
func Recognize(ctx context.Context, r ocr.Recognizer, img stdimage.Image, opts ocr.Options) (string, error) {
	gray, err := image.NewImageProcessor().Grayscale(img)
	if err != nil {
		return "", fmt.Errorf("converting to grayscale: %w", err)
	}
	obs, err := r.Recognize(ctx, ocr.Request{Image: gray, Options: opts})
	if err != nil {
		return "", fmt.Errorf("%s recognition: %w", r.Name(), err)
	}
	return Aggregate(obs), nil
}
