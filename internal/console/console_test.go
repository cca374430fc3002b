package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"textscope/internal/app"
	"textscope/internal/capture"
	"textscope/internal/ocr"
	"textscope/internal/orientation"
)

type nopRecognizer struct{}

func (nopRecognizer) Name() string { return "nop" }
func (nopRecognizer) Recognize(ctx context.Context, req ocr.Request) ([]ocr.Observation, error) {
	return nil, nil
}
func (nopRecognizer) Close() error { return nil }

type nopClipboard struct{}

func (nopClipboard) WriteAll(string) error { return nil }

// syncBuffer is written by the console and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newApp(t *testing.T, auth capture.Authorizer) *app.App {
	t.Helper()
	a := app.New(app.Settings{
		Options:     ocr.DefaultOptions(),
		Orientation: orientation.LandscapeLeft,
	}, app.Deps{
		Recognizer: nopRecognizer{},
		Authorizer: auth,
		Devices:    capture.Devices{},
		Clipboard:  nopClipboard{},
	})
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRun_ExecutesCommandsUntilQuit(t *testing.T) {
	// Arrange
	in := strings.NewReader("state\ncapture\nconfirm\nrotate portrait\ndiscard\nbogus\nquit\nstate\n")
	out := &syncBuffer{}
	c := New(in, out)
	a := newApp(t, capture.StaticAuthorizer{State: capture.Denied})
	c.Attach(a)

	// Act
	err := c.Run(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"[home] no text yet",
		"[capture]",
		"no detected text to confirm",
		"rotation 90",
		`unknown command "bogus"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if a.Screen() != nil {
		t.Error("discard should have left the capture screen")
	}
}

func TestAsk_AnsweredByNextLine(t *testing.T) {
	// Arrange
	inR, inW := io.Pipe()
	defer inW.Close()
	out := &syncBuffer{}
	c := New(inR, out)
	c.Attach(newApp(t, capture.StaticAuthorizer{State: capture.Denied}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	answers := make(chan string, 1)
	go func() {
		a, _ := c.Ask(ctx, "Allow?")
		answers <- a
	}()
	waitForOutput(t, out, "Allow?")

	// Act
	io.WriteString(inW, "yes\n")

	// Assert
	select {
	case a := <-answers:
		if a != "yes" {
			t.Errorf("answer = %q, want yes", a)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("question was never answered")
	}
}

func TestAsk_EndOfInput(t *testing.T) {
	// Arrange
	inR, inW := io.Pipe()
	out := &syncBuffer{}
	c := New(inR, out)
	c.Attach(newApp(t, capture.StaticAuthorizer{State: capture.Denied}))
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	errs := make(chan error, 1)
	go func() {
		_, err := c.Ask(context.Background(), "Allow?")
		errs <- err
	}()
	waitForOutput(t, out, "Allow?")

	// Act
	inW.Close()

	// Assert
	select {
	case err := <-errs:
		if err != ErrInputClosed {
			t.Errorf("expected ErrInputClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Ask did not return after input closed")
	}
	if err := <-done; err != ErrInputClosed {
		t.Errorf("Run = %v, want ErrInputClosed", err)
	}
}

func TestAsk_AfterRunReturns(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantRun error
	}{
		{name: "end of input", input: "", wantRun: ErrInputClosed},
		{name: "quit", input: "quit\n", wantRun: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c := New(strings.NewReader(tt.input), &syncBuffer{})
			c.Attach(newApp(t, capture.StaticAuthorizer{State: capture.Denied}))
			if err := c.Run(context.Background()); err != tt.wantRun {
				t.Fatalf("Run = %v, want %v", err, tt.wantRun)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			// Act
			_, err := c.Ask(ctx, "Allow?")

			// Assert
			if err != ErrInputClosed {
				t.Errorf("Ask = %v, want ErrInputClosed without waiting", err)
			}
			if ctx.Err() != nil {
				t.Error("Ask blocked until the deadline")
			}
		})
	}
}

func waitForOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("output never contained %q:\n%s", want, out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
