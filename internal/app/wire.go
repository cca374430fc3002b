package app

import (
	"os"

	"textscope/internal/capture"
	"textscope/internal/config"
	"textscope/internal/logger"
)

func SettingsFromConfig(cfg config.Config) (Settings, error) {
	opts, err := cfg.OCROptions()
	if err != nil {
		return Settings{}, err
	}
	policy, err := cfg.StalePolicy()
	if err != nil {
		return Settings{}, err
	}
	o, err := cfg.InitialOrientation()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Options:     opts,
		MinInterval: cfg.Throttle.MinInterval,
		StalePolicy: policy,
		Orientation: o,
	}, nil
}

// DevicesFromConfig lists the capture devices enabled by cfg. With "auto"
// an existing frames directory is preferred over the screen.
func DevicesFromConfig(cfg config.Config) (capture.Devices, error) {
	intrinsics, err := cfg.Intrinsics()
	if err != nil {
		return nil, err
	}
	dir := &capture.DirectoryDevice{Dir: cfg.Capture.FramesDir, FPS: cfg.Capture.FPS, Intrinsics: intrinsics}
	screen := &capture.ScreenDevice{FPS: cfg.Capture.FPS}

	switch cfg.Capture.Device {
	case "directory":
		return capture.Devices{dir}, nil
	case "screen":
		return capture.Devices{screen}, nil
	}

	if info, err := os.Stat(cfg.Capture.FramesDir); err == nil && info.IsDir() {
		dir.Preferred = true
		return capture.Devices{screen, dir}, nil
	}
	logger.DebugLog("[wire]: frames directory %q not found, using screen capture", cfg.Capture.FramesDir)
	return capture.Devices{screen}, nil
}

// AuthorizerFromConfig returns a prompting authorizer when the permission is
// not determined up front.
func AuthorizerFromConfig(cfg config.Config, asker capture.Asker) (capture.Authorizer, error) {
	status, err := cfg.AuthorizationStatus()
	if err != nil {
		return nil, err
	}
	if status == capture.NotDetermined {
		return &capture.PromptAuthorizer{Asker: asker}, nil
	}
	return capture.StaticAuthorizer{State: status}, nil
}
