package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"textscope/internal/logger"
	"textscope/internal/ocr"
)

var (
	ErrNoDevice = errors.New("no capture device available")
	ErrNoFrames = errors.New("no image frames found")
)

// Kind ranks devices for selection.
type Kind int

const (
	KindDefault Kind = iota
	KindDualWide
)

func (k Kind) String() string {
	if k == KindDualWide {
		return "dual-wide"
	}
	return "default"
}

// Device delivers frames until ctx is cancelled. Run calls sink sequentially
// from a single goroutine, in capture order.
type Device interface {
	Name() string
	Kind() Kind
	Run(ctx context.Context, sink func(Frame)) error
}

type DeviceProvider interface {
	Devices() []Device
}

// Devices is a fixed DeviceProvider.
type Devices []Device

func (d Devices) Devices() []Device { return d }

// SelectDevice prefers a dual wide camera and falls back to the first
// default video device.
func SelectDevice(p DeviceProvider) (Device, error) {
	var fallback Device
	for _, d := range p.Devices() {
		switch d.Kind() {
		case KindDualWide:
			return d, nil
		case KindDefault:
			if fallback == nil {
				fallback = d
			}
		}
	}
	if fallback == nil {
		return nil, ErrNoDevice
	}
	return fallback, nil
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 15
	}
	return time.Duration(float64(time.Second) / fps)
}

// DirectoryDevice replays the image files of a directory in name order,
// looping forever.
type DirectoryDevice struct {
	Dir        string
	FPS        float64
	Preferred  bool
	Intrinsics *ocr.Intrinsics
}

func (d *DirectoryDevice) Name() string { return "directory:" + d.Dir }

func (d *DirectoryDevice) Kind() Kind {
	if d.Preferred {
		return KindDualWide
	}
	return KindDefault
}

func (d *DirectoryDevice) Run(ctx context.Context, sink func(Frame)) error {
	files, err := listFrames(d.Dir)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(frameInterval(d.FPS))
	defer ticker.Stop()

	for i := 0; ; i = (i + 1) % len(files) {
		select {
		case <-ctx.Done():
			logger.DebugLog("[directoryDevice]: context done, stopping replay of %s", d.Dir)
			return nil
		case now := <-ticker.C:
			data, err := os.ReadFile(files[i])
			if err != nil {
				logger.DebugLog("[directoryDevice]: skipping %s: %v", files[i], err)
				continue
			}
			sink(Frame{Timestamp: now, Data: data, Intrinsics: d.Intrinsics})
		}
	}
}

func listFrames(directory string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", directory, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(directory, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, directory)
	}
	return files, nil
}

func isImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp", ".gif":
		return true
	}
	return false
}
