package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"textscope/internal/app"
	"textscope/internal/capture"
	"textscope/internal/clipboard"
	"textscope/internal/config"
	"textscope/internal/logger"
	"textscope/internal/ocr"
	"textscope/internal/ocr/engine"
	"textscope/internal/writer"
)

type CLI struct {
	configPath   string
	engineType   string
	clearHistory bool
	cfg          config.Config
	out          io.Writer
}

func NewCLI() *CLI {
	return &CLI{configPath: "textscope.yaml", out: os.Stdout}
}

func (c *CLI) Run(args []string) error {
	root := c.command()
	root.SetArgs(args)
	root.SetOut(c.out)
	return root.Execute()
}

func (c *CLI) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "textscope",
		Short:         "Recognize text from live camera frames",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.engineType != "" {
				cfg.Engine = c.engineType
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "YAML config file (defaults apply if missing)")
	root.PersistentFlags().StringVar(&c.engineType, "engine", "", "OCR engine type (gosseract, ollama), overrides the config")

	root.PersistentFlags().BoolVar(&c.clearHistory, "clear-history", false, "empty history_file on startup")

	root.AddCommand(c.runCmd(), c.serveCmd(), c.scanCmd())
	return root
}

func (c *CLI) recognizer() (ocr.Recognizer, error) {
	r, err := engine.New(engine.Config{
		Type:        c.cfg.Engine,
		Languages:   c.cfg.OCR.Languages,
		OllamaURL:   c.cfg.Ollama.BaseURL,
		OllamaModel: c.cfg.Ollama.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return r, nil
}

// buildApp wires the configured engine, devices and permission handling.
// asker answers camera permission prompts.
func (c *CLI) buildApp(asker capture.Asker) (*app.App, error) {
	settings, err := app.SettingsFromConfig(c.cfg)
	if err != nil {
		return nil, err
	}
	devices, err := app.DevicesFromConfig(c.cfg)
	if err != nil {
		return nil, err
	}
	auth, err := app.AuthorizerFromConfig(c.cfg, asker)
	if err != nil {
		return nil, err
	}
	r, err := c.recognizer()
	if err != nil {
		return nil, err
	}

	deps := app.Deps{
		Recognizer: r,
		Authorizer: auth,
		Devices:    devices,
		Clipboard:  clipboard.System{},
	}
	if c.cfg.HistoryFile != "" {
		deps.History = writer.NewHistory(c.cfg.HistoryFile)
		if c.clearHistory {
			if err := deps.History.Clear(); err != nil {
				deps.History.Close()
				r.Close()
				return nil, fmt.Errorf("clearing history: %w", err)
			}
		}
	}
	logger.DebugLog("[cli]: engine=%s devices=%d history=%q", r.Name(), len(devices), c.cfg.HistoryFile)
	return app.New(settings, deps), nil
}
