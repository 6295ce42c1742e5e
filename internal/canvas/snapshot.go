package canvas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
)

const dataURLPrefix = "data:image/png;base64,"

// Snapshot is a frozen copy of the canvas raster taken at submission time.
type Snapshot struct {
	img *image.RGBA
}

// NewSnapshot wraps an existing image, copying it into RGBA form. It is used
// when a drawing comes from a file or the clipboard instead of the board.
func NewSnapshot(src image.Image) Snapshot {
	b := src.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return Snapshot{img: img}
}

// Image returns the frozen raster. Callers must treat it as read-only.
func (s Snapshot) Image() image.Image {
	if s.img == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	return s.img
}

// Bounds returns the raster bounds.
func (s Snapshot) Bounds() image.Rectangle {
	if s.img == nil {
		return image.Rectangle{}
	}
	return s.img.Bounds()
}

// PNG encodes the snapshot.
func (s Snapshot) PNG() ([]byte, error) {
	if s.img == nil || s.img.Bounds().Empty() {
		return nil, fmt.Errorf("encode snapshot: %w", ErrNoDrawingContext)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.img); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL encodes the snapshot as a base64 PNG data URL, the form the
// recognition backend accepts.
func (s Snapshot) DataURL() (string, error) {
	data, err := s.PNG()
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL reverses DataURL. It also accepts bare base64 PNG data.
func DecodeDataURL(s string) (image.Image, error) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return img, nil
}
