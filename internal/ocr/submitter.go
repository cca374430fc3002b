package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"textscope/internal/logger"
)

var (
	ErrNilImage        = errors.New("request has no image")
	ErrInvalidOptions  = errors.New("invalid recognition options")
	ErrSubmitterClosed = errors.New("submitter is closed")
)

// Submitter runs recognitions asynchronously. Submit returns as soon as the
// request is accepted; the outcome is delivered to the completion callback
// from a worker goroutine.
type Submitter struct {
	recognizer Recognizer
	mu         sync.RWMutex
	closed     bool
	wg         sync.WaitGroup
}

func NewSubmitter(r Recognizer) *Submitter {
	return &Submitter{recognizer: r}
}

func (s *Submitter) Submit(req Request, done func(Result)) error {
	if err := validate(req); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSubmitterClosed
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger.DebugLog("[submit]: recognizing request %s (seq=%d) with %s", req.ID, req.Seq, s.recognizer.Name())
		obs, err := s.recognizer.Recognize(context.Background(), req)
		if err != nil {
			err = fmt.Errorf("%s recognition: %w", s.recognizer.Name(), err)
		}
		done(Result{RequestID: req.ID, Seq: req.Seq, Observations: obs, Error: err})
	}()
	return nil
}

// Wait blocks until every accepted request has completed.
func (s *Submitter) Wait() {
	s.wg.Wait()
}

// Close rejects new submissions, lets in-flight ones finish and closes the
// recognizer.
func (s *Submitter) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	return s.recognizer.Close()
}

func validate(req Request) error {
	if req.Image == nil || req.Image.Bounds().Empty() {
		return ErrNilImage
	}
	if h := req.Options.MinimumTextHeight; h < 0 || h > 1 {
		return fmt.Errorf("%w: minimum text height %v outside [0,1]", ErrInvalidOptions, h)
	}
	return nil
}
