// Package clipboard copies board images and result text to the system
// clipboard and reads drawings back from it.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
)

type format int

const (
	formatText format = iota
	formatPNG
)

func (f format) String() string {
	if f == formatPNG {
		return "image"
	}
	return "text"
}

// backend is one platform clipboard implementation.
type backend interface {
	init() error
	read(format) ([]byte, error)
	write(format, []byte) error
}

var (
	// ErrUnsupported is returned where no clipboard implementation exists.
	ErrUnsupported = errors.New("clipboard is not supported on this platform")
	// ErrEmpty is returned when the clipboard holds nothing of the asked kind.
	ErrEmpty = errors.New("clipboard holds no matching data")

	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")

	initOnce sync.Once
	initErr  error
	active   backend = newBackend()
)

func ensureInit() error {
	initOnce.Do(func() { initErr = active.init() })
	return initErr
}

// WriteImage encodes img as PNG and publishes it.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("clipboard encode: %w", err)
	}
	return active.write(formatPNG, buf.Bytes())
}

// ReadImage decodes PNG data from the clipboard.
func ReadImage() (image.Image, error) {
	data, err := readFormat(formatPNG)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("clipboard decode: %w", err)
	}
	return img, nil
}

// WriteText publishes UTF-8 text.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return active.write(formatText, []byte(text))
}

// ReadText returns UTF-8 text from the clipboard.
func ReadText() (string, error) {
	data, err := readFormat(formatText)
	if err != nil {
		return "", err
	}
	// Some applications append a NUL to STRING data.
	return string(bytes.TrimRight(data, "\x00")), nil
}

func readFormat(f format) ([]byte, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := active.read(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("read %s: %w", f, ErrEmpty)
	}
	return data, nil
}
