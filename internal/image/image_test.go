package image

import (
	"bytes"
	stdimage "image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func colorFrame(w, h int) *stdimage.RGBA {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: 200, B: uint8(y * 40), A: 255})
		}
	}
	return img
}

func TestGrayscale_ProducesSingleChannel(t *testing.T) {
	// Arrange
	ip := NewImageProcessor()
	src := colorFrame(5, 3)

	// Act
	gray, err := ip.Grayscale(src)

	// Assert
	if err != nil {
		t.Fatalf("grayscale failed: %v", err)
	}
	if gray.Bounds() != src.Bounds() {
		t.Errorf("expected bounds %v, got %v", src.Bounds(), gray.Bounds())
	}
	if len(gray.Pix) != 5*3 {
		t.Errorf("expected one byte per pixel, got %d bytes", len(gray.Pix))
	}
	// pure green has a well-defined non-zero luminance
	if gray.GrayAt(0, 0).Y == 0 {
		t.Errorf("expected non-zero luminance")
	}
}

func TestGrayscale_FlattensTransparencyOntoWhite(t *testing.T) {
	// Arrange
	ip := NewImageProcessor()
	src := stdimage.NewNRGBA(stdimage.Rect(0, 0, 3, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{A: 255})
	// pixel 2 is left fully transparent black

	// Act
	gray, err := ip.Grayscale(src)

	// Assert
	if err != nil {
		t.Fatalf("grayscale failed: %v", err)
	}
	if y := gray.GrayAt(0, 0).Y; y != 255 {
		t.Errorf("transparent white: expected Y=255, got %d", y)
	}
	if y := gray.GrayAt(1, 0).Y; y != 0 {
		t.Errorf("opaque black: expected Y=0, got %d", y)
	}
	if y := gray.GrayAt(2, 0).Y; y != 255 {
		t.Errorf("transparent black: expected Y=255, got %d", y)
	}
}

func TestGrayscale_RejectsEmpty(t *testing.T) {
	ip := NewImageProcessor()
	if _, err := ip.Grayscale(nil); err != ErrEmptyImage {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := ip.Grayscale(stdimage.NewRGBA(stdimage.Rect(0, 0, 0, 0))); err != ErrEmptyImage {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	ip := NewImageProcessor()
	var pngBuf, jpegBuf bytes.Buffer
	if err := png.Encode(&pngBuf, colorFrame(8, 6)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := jpeg.Encode(&jpegBuf, colorFrame(8, 6), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "jpeg": jpegBuf.Bytes()} {
		img, err := ip.Decode(data)
		if err != nil {
			t.Errorf("%s: decode failed: %v", name, err)
			continue
		}
		if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
			t.Errorf("%s: unexpected bounds %v", name, img.Bounds())
		}
	}

	if _, err := ip.Decode([]byte("not an image")); err == nil {
		t.Errorf("expected error for garbage input")
	}
	if _, err := ip.Decode(nil); err != ErrEmptyImage {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestRotate(t *testing.T) {
	ip := NewImageProcessor()
	src := colorFrame(4, 2)

	testCases := []struct {
		angle  int
		width  int
		height int
	}{
		{0, 4, 2},
		{90, 2, 4},
		{180, 4, 2},
		{270, 2, 4},
		{-90, 2, 4},
		{360, 4, 2},
	}

	for _, tc := range testCases {
		out, err := ip.Rotate(src, tc.angle)
		if err != nil {
			t.Errorf("angle %d: %v", tc.angle, err)
			continue
		}
		if out.Bounds().Dx() != tc.width || out.Bounds().Dy() != tc.height {
			t.Errorf("angle %d: expected %dx%d, got %v", tc.angle, tc.width, tc.height, out.Bounds())
		}
	}

	if _, err := ip.Rotate(src, 45); err == nil {
		t.Errorf("expected error for 45 degrees")
	}
}

func TestRotate_Clockwise(t *testing.T) {
	// Arrange
	ip := NewImageProcessor()
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	src := stdimage.NewNRGBA(stdimage.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, red)
	src.SetNRGBA(1, 0, green)

	testCases := []struct {
		angle  int
		top    color.NRGBA
		bottom color.NRGBA
	}{
		{90, red, green},
		{270, green, red},
	}

	for _, tc := range testCases {
		// Act
		out, err := ip.Rotate(src, tc.angle)

		// Assert
		if err != nil {
			t.Fatalf("angle %d: %v", tc.angle, err)
		}
		b := out.Bounds()
		top := color.NRGBAModel.Convert(out.At(b.Min.X, b.Min.Y)).(color.NRGBA)
		bottom := color.NRGBAModel.Convert(out.At(b.Min.X, b.Min.Y+1)).(color.NRGBA)
		if top != tc.top || bottom != tc.bottom {
			t.Errorf("angle %d: got top %v bottom %v, want %v %v", tc.angle, top, bottom, tc.top, tc.bottom)
		}
	}
}

func TestDownscale(t *testing.T) {
	ip := NewImageProcessor()
	gray := stdimage.NewGray(stdimage.Rect(0, 0, 10, 6))

	out, err := ip.Downscale(gray)

	if err != nil {
		t.Fatalf("downscale failed: %v", err)
	}
	if out.Bounds().Dx() != 5 || out.Bounds().Dy() != 3 {
		t.Errorf("expected 5x3, got %v", out.Bounds())
	}
}
