package engine

import (
	"fmt"

	"textscope/internal/ocr"
)

type Config struct {
	Type        string
	Languages   []string
	OllamaURL   string
	OllamaModel string
}

func New(cfg Config) (ocr.Recognizer, error) {
	switch cfg.Type {
	case "ollama":
		return NewOllamaEngine(cfg.OllamaURL, cfg.OllamaModel), nil
	case "gosseract", "":
		e, err := NewGosseractEngine(cfg.Languages)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown engine type: %s", cfg.Type)
	}
}
