package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var ErrClosed = errors.New("writer is shutting down")

type WriteMode int

const (
	ModeReplace WriteMode = iota
	ModeAppend
)

type MapperFunc[T any] func(T) []string

type HeaderFunc func() []string

type writeRequest[T any] struct {
	data       []T
	outputPath string
	mode       WriteMode
	response   chan error
}

// CSVWriter serializes all writes through one worker goroutine so records from
// concurrent callers never interleave.
type CSVWriter[T any] struct {
	queue    chan writeRequest[T]
	shutdown chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	// headers tracks which files already carry a header row; only the
	// worker touches it.
	headers map[string]bool
	mapper  MapperFunc[T]
	header  HeaderFunc
}

func NewCSVWriter[T any](mapper MapperFunc[T], header HeaderFunc) *CSVWriter[T] {
	cw := &CSVWriter[T]{
		queue:    make(chan writeRequest[T], 100),
		shutdown: make(chan struct{}),
		headers:  make(map[string]bool),
		mapper:   mapper,
		header:   header,
	}
	cw.startWorker()
	return cw
}

func (cw *CSVWriter[T]) startWorker() {
	cw.wg.Add(1)
	go func() {
		defer cw.wg.Done()
		for {
			select {
			case req := <-cw.queue:
				req.response <- cw.write(req.data, req.outputPath, req.mode)
			case <-cw.shutdown:
				return
			}
		}
	}()
}

func (cw *CSVWriter[T]) Close() {
	cw.once.Do(func() {
		close(cw.shutdown)
		cw.wg.Wait()
	})
}

func (cw *CSVWriter[T]) Append(data []T, outputPath string) error {
	return cw.WriteWithMode(data, outputPath, ModeAppend)
}

func (cw *CSVWriter[T]) Replace(data []T, outputPath string) error {
	return cw.WriteWithMode(data, outputPath, ModeReplace)
}

func (cw *CSVWriter[T]) WriteWithMode(data []T, outputPath string, mode WriteMode) error {
	response := make(chan error, 1)
	req := writeRequest[T]{
		data:       data,
		outputPath: outputPath,
		mode:       mode,
		response:   response,
	}

	select {
	case cw.queue <- req:
	case <-cw.shutdown:
		return ErrClosed
	}
	select {
	case err := <-response:
		return err
	case <-cw.shutdown:
		return ErrClosed
	}
}

func (cw *CSVWriter[T]) write(data []T, outputPath string, mode WriteMode) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	hasHeader := cw.headers[outputPath]
	if !hasHeader && mode == ModeAppend {
		// a file left by an earlier run already has its header
		if info, err := os.Stat(outputPath); err == nil && info.Size() > 0 {
			hasHeader = true
		}
	}

	var file *os.File
	var err error
	if mode == ModeAppend {
		file, err = os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	} else {
		file, err = os.Create(outputPath)
		hasHeader = false
	}
	if err != nil {
		return fmt.Errorf("opening CSV file: %w", err)
	}
	defer file.Close()
	cw.headers[outputPath] = hasHeader

	w := csv.NewWriter(file)

	if !hasHeader && len(data) > 0 {
		if err := w.Write(cw.header()); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
		cw.headers[outputPath] = true
	}

	for _, item := range data {
		if err := w.Write(cw.mapper(item)); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
