package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	testCases := []struct {
		format Format
		expect Descriptor
		known  bool
	}{
		{FormatInvertRGB565, Descriptor{"Invert RGB565", 2, 3}, true},
		{FormatThreshold, Descriptor{"Threshold 8-bit", 1, 1}, true},
		{FormatGrayscale, Descriptor{"Grayscale 8-bit", 1, 1}, true},
		{FormatSobel, Descriptor{"Sobel 8-bit", 1, 1}, true},
		{Format(0x04), Descriptor{"Unknown", 1, 1}, false},
		{Format(0xff), Descriptor{"Unknown", 1, 1}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.format.String(), func(t *testing.T) {
			require.Equal(t, tc.expect, Describe(tc.format))
			require.Equal(t, tc.known, tc.format.Known())
		})
	}
	require.Equal(t, "Grayscale 8-bit (0x02)", FormatGrayscale.String())
}

func TestExpandRGB565(t *testing.T) {
	testCases := []struct {
		name    string
		v       uint16
		r, g, b uint8
	}{
		{"black", 0x0000, 0, 0, 0},
		{"white", 0xffff, 0xf8, 0xfc, 0xf8},
		{"red", 0xf800, 0xf8, 0, 0},
		{"green", 0x07e0, 0, 0xfc, 0},
		{"blue", 0x001f, 0, 0, 0xf8},
		{"lsb of each channel", 0x0821, 0x08, 0x04, 0x08},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, g, b := ExpandRGB565(tc.v)
			require.Equal(t, []uint8{tc.r, tc.g, tc.b}, []uint8{r, g, b})
		})
	}
}

func TestRGB565RoundTrip(t *testing.T) {
	for r := 0; r < 256; r += 5 {
		for g := 0; g < 256; g += 3 {
			for b := 0; b < 256; b += 7 {
				v := RGB565(uint8(r), uint8(g), uint8(b))
				er, eg, eb := ExpandRGB565(v)
				require.Equal(t, uint8(r)&0xf8, er)
				require.Equal(t, uint8(g)&0xfc, eg)
				require.Equal(t, uint8(b)&0xf8, eb)
				require.Equal(t, v, RGB565(er, eg, eb))
			}
		}
	}
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name    string
		format  Format
		payload []byte
		w, h    int
		expect  *Grid
	}{
		{
			name:    "grayscale column",
			format:  FormatGrayscale,
			payload: []byte{0x10, 0x20},
			w:       1,
			h:       2,
			expect:  &Grid{Width: 1, Height: 2, Channels: 1, Pix: []uint8{0x10, 0x20}},
		},
		{
			name:    "threshold row",
			format:  FormatThreshold,
			payload: []byte{0x00, 0xff, 0x00},
			w:       3,
			h:       1,
			expect:  &Grid{Width: 3, Height: 1, Channels: 1, Pix: []uint8{0x00, 0xff, 0x00}},
		},
		{
			name:    "unknown format as single channel",
			format:  Format(0x42),
			payload: []byte{1, 2, 3, 4},
			w:       2,
			h:       2,
			expect:  &Grid{Width: 2, Height: 2, Channels: 1, Pix: []uint8{1, 2, 3, 4}},
		},
		{
			name:    "rgb565 little endian",
			format:  FormatInvertRGB565,
			payload: []byte{0x00, 0xf8, 0xe0, 0x07, 0x1f, 0x00, 0xff, 0xff},
			w:       2,
			h:       2,
			expect: &Grid{Width: 2, Height: 2, Channels: 3, Pix: []uint8{
				0xf8, 0, 0, 0, 0xfc, 0,
				0, 0, 0xf8, 0xf8, 0xfc, 0xf8,
			}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			grid, err := Decode(tc.format, tc.payload, tc.w, tc.h)
			require.NoError(t, err)
			require.Equal(t, tc.expect, grid)
		})
	}
}

func TestDecodeShortPayload(t *testing.T) {
	_, err := Decode(FormatInvertRGB565, []byte{1, 2, 3}, 2, 1)
	require.Equal(t, &IncompletePayloadError{Got: 3, Expected: 4}, err)
}

func TestGridImage(t *testing.T) {
	gray, err := Decode(FormatSobel, []byte{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	require.Equal(t, []uint8{4, 5, 6}, gray.Row(1))
	require.Equal(t, []uint8{2}, gray.At(1, 0))
	img := gray.Image().(*image.Gray)
	require.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	require.Equal(t, color.Gray{Y: 6}, img.GrayAt(2, 1))

	rgb, err := Decode(FormatInvertRGB565, []byte{0x00, 0xf8, 0x1f, 0x00}, 1, 2)
	require.NoError(t, err)
	rgba := rgb.Image().(*image.RGBA)
	require.Equal(t, color.RGBA{R: 0xf8, A: 0xff}, rgba.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{B: 0xf8, A: 0xff}, rgba.RGBAAt(0, 1))
}
