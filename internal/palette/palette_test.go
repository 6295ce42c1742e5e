package palette

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
	}{
		{"rgb(255, 255, 255)", color.RGBA{255, 255, 255, 255}},
		{"#ee3333", color.RGBA{0xee, 0x33, 0x33, 0xff}},
		{"#11223344", color.RGBA{0x11, 0x22, 0x33, 0x44}},
		{"red", color.RGBA{0xee, 0x33, 0x33, 0xff}},
		{"navy", color.RGBA{0x00, 0x00, 0x80, 0xff}},
		{"  Orange ", color.RGBA{0xfd, 0x7e, 0x14, 0xff}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "#12", "rgb(1,2)", "rgb(300, 0, 0)", "chartreusey"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestDefaultIsWhite(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, Default())
	assert.Equal(t, DefaultIndex(), IndexOf(Default()))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3))
	assert.Equal(t, len(Swatches())-1, Clamp(99))
	assert.Equal(t, At(len(Swatches())-1), At(99))
}

func TestFormatRoundTrip(t *testing.T) {
	for _, sw := range Swatches() {
		got, err := Parse(Format(sw.Color))
		require.NoError(t, err)
		assert.Equal(t, sw.Color, got)
	}
	assert.Equal(t, "#01020304", Format(color.RGBA{1, 2, 3, 4}))
}
