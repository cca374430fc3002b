package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"textscope/internal/capture"
	"textscope/internal/display"
	"textscope/internal/ocr"
	"textscope/internal/orientation"
)

type Config struct {
	Engine       string         `yaml:"engine"`
	Ollama       OllamaConfig   `yaml:"ollama"`
	OCR          OCRConfig      `yaml:"ocr"`
	Throttle     ThrottleConfig `yaml:"throttle"`
	Capture      CaptureConfig  `yaml:"capture"`
	StaleResults string         `yaml:"stale_results"`
	HTTP         HTTPConfig     `yaml:"http"`
	HistoryFile  string         `yaml:"history_file"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type OCRConfig struct {
	MinTextHeight float64  `yaml:"min_text_height"`
	Level         string   `yaml:"level"`
	Languages     []string `yaml:"languages"`
}

type ThrottleConfig struct {
	MinInterval time.Duration `yaml:"min_interval"`
}

type CaptureConfig struct {
	// Device is auto, directory or screen.
	Device      string    `yaml:"device"`
	FramesDir   string    `yaml:"frames_dir"`
	FPS         float64   `yaml:"fps"`
	Permission  string    `yaml:"permission"`
	Orientation string    `yaml:"orientation"`
	Intrinsics  []float64 `yaml:"intrinsics"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func Default() Config {
	return Config{
		Engine: "gosseract",
		OCR: OCRConfig{
			MinTextHeight: ocr.DefaultMinimumTextHeight,
			Level:         "accurate",
			Languages:     []string{"eng"},
		},
		Throttle: ThrottleConfig{MinInterval: 2 * time.Second},
		Capture: CaptureConfig{
			Device:      "auto",
			FramesDir:   "frames",
			FPS:         15,
			Permission:  "prompt",
			Orientation: "landscape-left",
		},
		StaleResults: "keep",
		HTTP:         HTTPConfig{Addr: "127.0.0.1:8080"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Engine {
	case "gosseract", "ollama":
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	if _, err := c.OCROptions(); err != nil {
		return err
	}
	if c.Throttle.MinInterval < 0 {
		return fmt.Errorf("throttle.min_interval must not be negative")
	}
	switch c.Capture.Device {
	case "auto", "directory", "screen":
	default:
		return fmt.Errorf("unknown capture device %q", c.Capture.Device)
	}
	if c.Capture.FPS < 0 {
		return fmt.Errorf("capture.fps must not be negative")
	}
	if _, err := c.AuthorizationStatus(); err != nil {
		return err
	}
	if _, err := c.InitialOrientation(); err != nil {
		return err
	}
	if _, err := c.Intrinsics(); err != nil {
		return err
	}
	if _, err := c.StalePolicy(); err != nil {
		return err
	}
	return nil
}

func (c Config) OCROptions() (ocr.Options, error) {
	level, err := ocr.ParseLevel(c.OCR.Level)
	if err != nil {
		return ocr.Options{}, err
	}
	if c.OCR.MinTextHeight < 0 || c.OCR.MinTextHeight > 1 {
		return ocr.Options{}, fmt.Errorf("ocr.min_text_height %v outside [0,1]", c.OCR.MinTextHeight)
	}
	return ocr.Options{
		MinimumTextHeight: c.OCR.MinTextHeight,
		Level:             level,
		Languages:         c.OCR.Languages,
	}, nil
}

func (c Config) AuthorizationStatus() (capture.AuthorizationStatus, error) {
	return capture.ParseAuthorizationStatus(c.Capture.Permission)
}

func (c Config) InitialOrientation() (orientation.Orientation, error) {
	return orientation.Parse(c.Capture.Orientation)
}

// Intrinsics returns nil when no matrix is configured.
func (c Config) Intrinsics() (*ocr.Intrinsics, error) {
	if len(c.Capture.Intrinsics) == 0 {
		return nil, nil
	}
	if len(c.Capture.Intrinsics) != 9 {
		return nil, fmt.Errorf("capture.intrinsics needs 9 values, got %d", len(c.Capture.Intrinsics))
	}
	var m ocr.Intrinsics
	copy(m[:], c.Capture.Intrinsics)
	return &m, nil
}

func (c Config) StalePolicy() (display.StalePolicy, error) {
	switch c.StaleResults {
	case "", "keep":
		return display.KeepLatestCompletion, nil
	case "drop":
		return display.DropStale, nil
	}
	return display.KeepLatestCompletion, fmt.Errorf("unknown stale_results %q", c.StaleResults)
}
