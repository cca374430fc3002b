package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

var ErrEmptyText = errors.New("nothing to copy")

type Writer interface {
	WriteAll(text string) error
}

// System writes to the OS clipboard.
type System struct{}

func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard not supported on this system")
	}
	return clipboard.WriteAll(text)
}

// Copy writes text to w. Empty text is refused.
func Copy(w Writer, text string) error {
	if text == "" {
		return ErrEmptyText
	}
	if err := w.WriteAll(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}
