// Package palette holds the swatch colours offered on the board and parses
// user supplied colour specifications.
package palette

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Swatch is a named colour offered in the toolbar.
type Swatch struct {
	Name  string
	Color color.RGBA
}

var swatches = []Swatch{
	{"Black", color.RGBA{0x00, 0x00, 0x00, 0xff}},
	{"White", color.RGBA{0xff, 0xff, 0xff, 0xff}},
	{"Red", color.RGBA{0xee, 0x33, 0x33, 0xff}},
	{"Pink", color.RGBA{0xe6, 0x49, 0x80, 0xff}},
	{"Purple", color.RGBA{0xbe, 0x4b, 0xdb, 0xff}},
	{"Brown", color.RGBA{0x89, 0x32, 0x00, 0xff}},
	{"Blue", color.RGBA{0x22, 0x8b, 0xe6, 0xff}},
	{"Indigo", color.RGBA{0x33, 0x33, 0xee, 0xff}},
	{"Green", color.RGBA{0x40, 0xc0, 0x57, 0xff}},
	{"Forest", color.RGBA{0x00, 0xaa, 0x00, 0xff}},
	{"Yellow", color.RGBA{0xfa, 0xb0, 0x05, 0xff}},
	{"Orange", color.RGBA{0xfd, 0x7e, 0x14, 0xff}},
}

// defaultIndex points at white, the initial ink on the dark board.
const defaultIndex = 1

// Swatches returns a copy of the toolbar swatches.
func Swatches() []Swatch {
	out := make([]Swatch, len(swatches))
	copy(out, swatches)
	return out
}

// DefaultIndex returns the index of the initial stroke colour.
func DefaultIndex() int { return defaultIndex }

// Default returns the initial stroke colour.
func Default() color.RGBA { return swatches[defaultIndex].Color }

// At returns the swatch colour at idx, clamped to the valid range.
func At(idx int) color.RGBA {
	return swatches[Clamp(idx)].Color
}

// Clamp limits idx to the swatch range.
func Clamp(idx int) int {
	if idx < 0 {
		return 0
	}
	if idx >= len(swatches) {
		return len(swatches) - 1
	}
	return idx
}

// IndexOf returns the swatch index of c or -1 when c is not a swatch.
func IndexOf(c color.RGBA) int {
	for i, s := range swatches {
		if s.Color == c {
			return i
		}
	}
	return -1
}

// Parse converts a colour name, swatch name, #RRGGBB[AA] value or
// rgb(r, g, b) expression into a colour.
func Parse(s string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return color.RGBA{}, fmt.Errorf("color cannot be empty")
	}
	for _, sw := range swatches {
		if strings.EqualFold(sw.Name, v) {
			return sw.Color, nil
		}
	}
	if c, ok := colornames.Map[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v)
	}
	if strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")") {
		return parseFunc(v)
	}
	return color.RGBA{}, fmt.Errorf("invalid color %q", s)
}

// Format renders c as #RRGGBB, or #RRGGBBAA when it is translucent.
func Format(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

func parseHex(v string) (color.RGBA, error) {
	hex := strings.TrimPrefix(v, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", v)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", v, err)
	}
	if len(hex) == 6 {
		return color.RGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 0xff}, nil
	}
	return color.RGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
}

func parseFunc(v string) (color.RGBA, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(v, "rgb("), ")")
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want rgb(r, g, b)", v)
	}
	var ch [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", v, err)
		}
		ch[i] = uint8(n)
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xff}, nil
}
