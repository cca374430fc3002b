package capture

import (
	"context"
	"time"

	"github.com/vova616/screenshot"

	"textscope/internal/logger"
)

// ScreenDevice captures the primary screen. It is the default video device
// on machines without a camera feed.
type ScreenDevice struct {
	FPS float64
}

func (d *ScreenDevice) Name() string { return "screen" }

func (d *ScreenDevice) Kind() Kind { return KindDefault }

func (d *ScreenDevice) Run(ctx context.Context, sink func(Frame)) error {
	ticker := time.NewTicker(frameInterval(d.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			img, err := screenshot.CaptureScreen()
			if err != nil {
				logger.DebugLog("[screenDevice]: capture failed: %v", err)
				continue
			}
			sink(Frame{Timestamp: now, Image: img})
		}
	}
}
