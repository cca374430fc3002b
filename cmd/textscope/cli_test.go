package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"textscope/internal/config"
	"textscope/internal/console"
)

// writeTextImage renders text onto a white PNG.
func writeTextImage(t *testing.T, dir, text string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 25),
	}
	d.DrawString(text)

	path := filepath.Join(dir, "text.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScan_WithOllamaEngine(t *testing.T) {
	// Arrange
	var gotImage bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Images []string `json:"images"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Images) == 1 {
			_, err := base64.StdEncoding.DecodeString(req.Images[0])
			gotImage = err == nil
		}
		answer, _ := json.Marshal(`{"lines": [{"text": "Hello", "confidence": 0.9, "height": 0.3}]}`)
		json.NewEncoder(w).Encode(map[string]any{"response": json.RawMessage(answer), "done": true})
	}))
	defer server.Close()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "textscope.yaml")
	yaml := "engine: ollama\nollama:\n  base_url: " + server.URL + "\n  model: test\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	imagePath := writeTextImage(t, dir, "Hello")

	var out bytes.Buffer
	cli := NewCLI()
	cli.out = &out

	// Act
	err := cli.Run([]string{"--config", configPath, "scan", imagePath})

	// Assert
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !gotImage {
		t.Error("engine did not receive a base64 image")
	}
	if got := strings.TrimSpace(out.String()); got != "Hello" {
		t.Errorf("output = %q, want Hello", got)
	}
}

func TestRun_RejectsUnknownEngine(t *testing.T) {
	// Arrange
	cli := NewCLI()
	cli.out = &bytes.Buffer{}

	// Act
	err := cli.Run([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--engine", "bogus", "scan", "x.png"})

	// Assert
	if err == nil || !strings.Contains(err.Error(), "unknown engine") {
		t.Errorf("expected unknown engine error, got %v", err)
	}
}

func TestScan_MissingFile(t *testing.T) {
	// Arrange
	cli := NewCLI()
	cli.out = &bytes.Buffer{}

	// Act
	err := cli.Run([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--engine", "ollama", "scan", "does-not-exist.png"})

	// Assert
	if err == nil || !strings.Contains(err.Error(), "reading") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestWaitForShutdown(t *testing.T) {
	// Arrange
	listenErr := errors.New("address in use")

	t.Run("terminal quit stops the server", func(t *testing.T) {
		termDone := make(chan error, 1)
		termDone <- nil

		// Act
		err := waitForShutdown(context.Background(), make(chan error), termDone)

		// Assert
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	})

	t.Run("end of input keeps serving", func(t *testing.T) {
		termDone := make(chan error, 1)
		termDone <- console.ErrInputClosed
		errs := make(chan error, 1)
		go func() {
			time.Sleep(20 * time.Millisecond)
			errs <- listenErr
		}()

		// Act
		err := waitForShutdown(context.Background(), errs, termDone)

		// Assert
		if !errors.Is(err, listenErr) {
			t.Errorf("expected to wait for the server error, got %v", err)
		}
	})

	t.Run("context done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Act
		err := waitForShutdown(ctx, make(chan error), make(chan error))

		// Assert
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	})
}

func TestBuildApp_ClearHistory(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "history.csv")
	if err := os.WriteFile(historyPath, []byte("ID,ConfirmedAt,Text\nx,y,old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "textscope.yaml")
	yaml := "engine: ollama\nhistory_file: " + historyPath + "\ncapture:\n  permission: denied\n  frames_dir: " + filepath.Join(dir, "frames") + "\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	cli := NewCLI()
	cli.cfg = cfg
	cli.clearHistory = true

	// Act
	a, err := cli.buildApp(nil)

	// Assert
	if err != nil {
		t.Fatalf("buildApp failed: %v", err)
	}
	defer a.Close()
	data, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected cleared history, got %q", data)
	}
}
