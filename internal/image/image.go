package image

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var ErrEmptyImage = errors.New("empty image")

type ImageProcessor struct{}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

// Decode turns an encoded frame buffer into a static image.
func (ip *ImageProcessor) Decode(data []byte) (stdimage.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(false))
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return img, nil
}

// Grayscale reduces img to a single luminance channel. Transparent areas
// are flattened onto white first so they read as background, not ink.
func (ip *ImageProcessor) Grayscale(img stdimage.Image) (*stdimage.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if g, ok := img.(*stdimage.Gray); ok {
		return g, nil
	}

	if o, ok := img.(interface{ Opaque() bool }); !ok || !o.Opaque() {
		b := img.Bounds()
		img = imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, stdimage.Point{}, 1.0)
	}

	// imaging.Grayscale keeps four channels; copy the luminance into a Gray.
	nrgba := imaging.Grayscale(img)
	gray := stdimage.NewGray(nrgba.Bounds())
	draw.Draw(gray, gray.Bounds(), nrgba, nrgba.Bounds().Min, draw.Src)
	return gray, nil
}

// Rotate turns img clockwise by angle degrees, the direction of a capture
// connection's rotation angle. Only multiples of 90 are supported.
func (ip *ImageProcessor) Rotate(img stdimage.Image, angle int) (stdimage.Image, error) {
	// imaging rotates counter-clockwise.
	switch ((angle % 360) + 360) % 360 {
	case 0:
		return img, nil
	case 90:
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	}
	return nil, fmt.Errorf("unsupported rotation angle %d", angle)
}

// Downscale halves both dimensions of img.
func (ip *ImageProcessor) Downscale(img *stdimage.Gray) (*stdimage.Gray, error) {
	b := img.Bounds()
	if b.Dx() < 2 || b.Dy() < 2 {
		return img, nil
	}
	return ip.Grayscale(imaging.Resize(img, b.Dx()/2, b.Dy()/2, imaging.Lanczos))
}

func (ip *ImageProcessor) EncodePNG(img stdimage.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
