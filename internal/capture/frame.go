package capture

import (
	"errors"
	"image"
	"time"

	"textscope/internal/ocr"
)

var ErrEmptyFrame = errors.New("frame carries no image data")

// Frame is one delivered video frame. Devices fill either Data (an encoded
// buffer) or Image; the session stamps ID, Seq and RotationAngle.
type Frame struct {
	ID            string
	Seq           uint64
	Timestamp     time.Time
	Data          []byte
	Image         image.Image
	Intrinsics    *ocr.Intrinsics
	RotationAngle int
}

// Decoder turns an encoded frame buffer into an image.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// StaticImage returns the frame as a decoded image.
func (f Frame) StaticImage(d Decoder) (image.Image, error) {
	if f.Image != nil {
		return f.Image, nil
	}
	if len(f.Data) == 0 {
		return nil, ErrEmptyFrame
	}
	return d.Decode(f.Data)
}
