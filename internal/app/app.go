// Package app ties the screen state machine to the capture pipeline. It is
// the only place that creates and tears down capture sessions.
package app

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"textscope/internal/capture"
	"textscope/internal/clipboard"
	"textscope/internal/display"
	"textscope/internal/logger"
	"textscope/internal/ocr"
	"textscope/internal/orientation"
	"textscope/internal/pipeline"
	"textscope/internal/state"
	"textscope/internal/writer"
)

var (
	ErrNothingToConfirm = errors.New("no detected text to confirm")
	ErrNotCapturing     = errors.New("capture screen is not active")
)

type Settings struct {
	Options     ocr.Options
	MinInterval time.Duration
	StalePolicy display.StalePolicy
	Orientation orientation.Orientation
}

type Deps struct {
	Recognizer ocr.Recognizer
	Authorizer capture.Authorizer
	Devices    capture.DeviceProvider
	Clipboard  clipboard.Writer
	// History is optional.
	History *writer.History
	// Clock is optional and only used by the frame processor.
	Clock pipeline.Clock
}

// CaptureScreen is everything that lives only while the capture screen is
// shown.
type CaptureScreen struct {
	Session   *capture.Session
	Detected  *display.Cell
	Processor *pipeline.Processor
}

type App struct {
	settings  Settings
	deps      Deps
	store     *state.Store
	submitter *ocr.Submitter

	mu          sync.Mutex
	screen      *CaptureScreen
	orientation orientation.Orientation
}

func New(settings Settings, deps Deps) *App {
	return &App{
		settings:    settings,
		deps:        deps,
		store:       state.NewStore(),
		submitter:   ocr.NewSubmitter(deps.Recognizer),
		orientation: settings.Orientation,
	}
}

func (a *App) State() state.State {
	return a.store.Get()
}

// Screen returns the active capture screen, or nil on the home screen.
func (a *App) Screen() *CaptureScreen {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

// StartCapture moves to the capture screen and starts a fresh session.
func (a *App) StartCapture() (state.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, err := a.store.Apply(state.NavigateToCapture)
	if err != nil {
		return st, err
	}

	cell := display.NewCell(a.settings.StalePolicy)
	opts := []pipeline.Option{
		pipeline.WithOptions(a.settings.Options),
		pipeline.WithMinInterval(a.settings.MinInterval),
	}
	if a.deps.Clock != nil {
		opts = append(opts, pipeline.WithClock(a.deps.Clock))
	}
	proc := pipeline.NewProcessor(a.submitter, cell, opts...)
	session := capture.NewSession(a.deps.Authorizer, a.deps.Devices, proc.ProcessFrame)
	session.SetOrientation(a.orientation)
	session.Activate()

	a.screen = &CaptureScreen{Session: session, Detected: cell, Processor: proc}
	logger.DebugLog("[app]: capture screen started")
	return st, nil
}

// Confirm commits the detected text and returns home. It is refused while
// nothing has been detected.
func (a *App) Confirm() (state.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	text := ""
	if a.screen != nil {
		text = a.screen.Detected.Load().Text
	}
	st, err := a.store.Apply(func(s state.State) (state.State, error) {
		if s.Screen == state.Capture && text == "" {
			return s, ErrNothingToConfirm
		}
		return state.Confirm(s, text)
	})
	if err != nil {
		return st, err
	}
	a.teardown()

	if a.deps.History != nil {
		if err := a.deps.History.Record(text); err != nil {
			logger.Infof("recording history: %v", err)
		}
	}
	return st, nil
}

// Discard clears the shared text and returns home.
func (a *App) Discard() (state.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, err := a.store.Apply(state.Discard)
	if err != nil {
		return st, err
	}
	a.teardown()
	return st, nil
}

// Copy writes the committed text to the clipboard.
func (a *App) Copy() error {
	return clipboard.Copy(a.deps.Clipboard, a.store.Get().Text)
}

// Detected returns the capture screen's current snapshot.
func (a *App) Detected() (display.Snapshot, error) {
	screen := a.Screen()
	if screen == nil {
		return display.Snapshot{}, ErrNotCapturing
	}
	return screen.Detected.Load(), nil
}

// SetOrientation is remembered across capture screens.
func (a *App) SetOrientation(o orientation.Orientation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.orientation = o
	if a.screen != nil {
		a.screen.Session.SetOrientation(o)
	}
}

func (a *App) Layout(bounds image.Rectangle) error {
	screen := a.Screen()
	if screen == nil {
		return ErrNotCapturing
	}
	screen.Session.Layout(bounds)
	return nil
}

// Close leaves the capture screen, waits for in-flight recognitions and
// releases the recognizer.
func (a *App) Close() error {
	a.mu.Lock()
	a.teardown()
	a.mu.Unlock()

	if a.deps.History != nil {
		defer a.deps.History.Close()
	}
	if err := a.submitter.Close(); err != nil {
		return fmt.Errorf("closing recognizer: %w", err)
	}
	return nil
}

// teardown must be called with a.mu held.
func (a *App) teardown() {
	if a.screen == nil {
		return
	}
	a.screen.Session.Close()
	a.screen = nil
	logger.DebugLog("[app]: capture screen torn down")
}
