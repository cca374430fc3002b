// Package console is the interactive terminal front end. Every input line is
// either the answer to a pending question or a command.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"
	"sync"

	"textscope/internal/app"
	"textscope/internal/orientation"
	"textscope/internal/state"
)

var ErrInputClosed = errors.New("input closed")

const help = `commands:
  capture              open the capture screen
  confirm              keep the detected text and go home
  discard              drop the text and go home
  copy                 copy the text to the clipboard
  rotate <orientation> portrait | portrait-upside-down | landscape-left | landscape-right
  layout <w> <h>       resize the preview
  status               show the capture session status
  state                show the current screen
  quit                 exit`

type Console struct {
	app   *app.App
	lines chan string

	outMu sync.Mutex
	out   io.Writer

	mu      sync.Mutex
	pending chan string
	closed  bool
	unwatch func()
}

// New starts reading lines from in. Attach an app before calling Run.
func New(in io.Reader, out io.Writer) *Console {
	c := &Console{out: out, lines: make(chan string)}
	go c.read(in)
	return c
}

func (c *Console) Attach(a *app.App) {
	c.app = a
}

func (c *Console) read(in io.Reader) {
	defer close(c.lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
}

// Ask prints question and waits for the next input line. Once input has
// ended or Run has returned it fails with ErrInputClosed.
func (c *Console) Ask(ctx context.Context, question string) (string, error) {
	answer := make(chan string, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrInputClosed
	}
	c.pending = answer
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.pending == answer {
			c.pending = nil
		}
		c.mu.Unlock()
	}()

	c.printf("%s ", question)
	select {
	case a, ok := <-answer:
		if !ok {
			return "", ErrInputClosed
		}
		return a, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run executes commands until quit, end of input or ctx is done. It returns
// nil on quit and ErrInputClosed at end of input. Questions asked after Run
// returns are refused.
func (c *Console) Run(ctx context.Context) error {
	defer c.stopWatching()
	defer c.closeInput()
	c.printf("%s\n", help)
	c.printState(c.app.State())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-c.lines:
			if !ok {
				return ErrInputClosed
			}
			if c.answer(line) {
				continue
			}
			if quit := c.Execute(line); quit {
				return nil
			}
		}
	}
}

func (c *Console) answer(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return false
	}
	c.pending <- line
	c.pending = nil
	return true
}

// closeInput fails the pending question and every later one.
func (c *Console) closeInput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.pending != nil {
		close(c.pending)
		c.pending = nil
	}
}

// Execute runs one command line and reports whether the user asked to quit.
func (c *Console) Execute(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "capture":
		st, err := c.app.StartCapture()
		if c.report(err) {
			return false
		}
		c.watch()
		c.printState(st)
	case "confirm":
		st, err := c.app.Confirm()
		if c.report(err) {
			return false
		}
		c.stopWatching()
		c.printState(st)
	case "discard":
		st, err := c.app.Discard()
		if c.report(err) {
			return false
		}
		c.stopWatching()
		c.printState(st)
	case "copy":
		if !c.report(c.app.Copy()) {
			c.printf("copied to clipboard\n")
		}
	case "rotate":
		if len(fields) != 2 {
			c.printf("usage: rotate <orientation>\n")
			return false
		}
		o, err := orientation.Parse(fields[1])
		if c.report(err) {
			return false
		}
		c.app.SetOrientation(o)
		c.printf("rotation %d\n", orientation.RotationAngle(o))
	case "layout":
		c.layout(fields[1:])
	case "status":
		screen := c.app.Screen()
		if screen == nil {
			c.report(app.ErrNotCapturing)
			return false
		}
		st := screen.Session.Status()
		c.printf("permission=%t running=%t device=%q orientation=%s rotation=%d frames=%d\n",
			st.PermissionGranted, st.Running, st.Device, st.Orientation, st.RotationAngle, st.FramesDelivered)
	case "state":
		c.printState(c.app.State())
	case "help":
		c.printf("%s\n", help)
	case "quit", "exit":
		return true
	default:
		c.printf("unknown command %q, try help\n", fields[0])
	}
	return false
}

func (c *Console) layout(args []string) {
	if len(args) != 2 {
		c.printf("usage: layout <w> <h>\n")
		return
	}
	w, errW := strconv.Atoi(args[0])
	h, errH := strconv.Atoi(args[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		c.printf("layout needs two positive integers\n")
		return
	}
	c.report(c.app.Layout(image.Rect(0, 0, w, h)))
}

// watch prints every change of the detected text until the capture screen
// is left.
func (c *Console) watch() {
	screen := c.app.Screen()
	if screen == nil {
		return
	}
	updates, cancel := screen.Detected.Subscribe()

	c.mu.Lock()
	if c.unwatch != nil {
		c.unwatch()
	}
	c.unwatch = cancel
	c.mu.Unlock()

	go func() {
		last := ""
		for snap := range updates {
			text, isErr := snap.Visible()
			if text == last {
				continue
			}
			last = text
			if isErr {
				c.printf("error: %s\n", text)
				continue
			}
			c.printf("detected:\n%s\n", text)
		}
	}()
}

func (c *Console) stopWatching() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unwatch != nil {
		c.unwatch()
		c.unwatch = nil
	}
}

func (c *Console) printState(st state.State) {
	switch st.Screen {
	case state.Capture:
		c.printf("[capture] point the camera at some text, then confirm or discard\n")
	default:
		if st.Text == "" {
			c.printf("[home] no text yet, use capture\n")
			return
		}
		c.printf("[home]\n%s\n(copy available)\n", st.Text)
	}
}

func (c *Console) report(err error) bool {
	if err == nil {
		return false
	}
	c.printf("error: %v\n", err)
	return true
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}
