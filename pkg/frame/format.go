package frame

import "fmt"

// Format is the pixel encoding code carried in the header.
type Format uint8

// Known formats.
const (
	FormatInvertRGB565 Format = 0x00
	FormatThreshold    Format = 0x01
	FormatGrayscale    Format = 0x02
	FormatSobel        Format = 0x03
)

// Descriptor describes how a format is laid out.
type Descriptor struct {
	Name          string
	BytesPerPixel int
	Channels      int
}

var unknownDescriptor = Descriptor{Name: "Unknown", BytesPerPixel: 1, Channels: 1}

var descriptors = map[Format]Descriptor{
	FormatInvertRGB565: {Name: "Invert RGB565", BytesPerPixel: 2, Channels: 3},
	FormatThreshold:    {Name: "Threshold 8-bit", BytesPerPixel: 1, Channels: 1},
	FormatGrayscale:    {Name: "Grayscale 8-bit", BytesPerPixel: 1, Channels: 1},
	FormatSobel:        {Name: "Sobel 8-bit", BytesPerPixel: 1, Channels: 1},
}

// Formats lists the known formats in code order.
func Formats() []Format {
	return []Format{FormatInvertRGB565, FormatThreshold, FormatGrayscale, FormatSobel}
}

// Describe looks up the descriptor of a format code. Unknown codes are
// described as 1 byte per pixel single-channel data labeled "Unknown".
func Describe(f Format) Descriptor {
	if d, ok := descriptors[f]; ok {
		return d
	}
	return unknownDescriptor
}

// Known reports whether f is one of the defined formats.
func (f Format) Known() bool {
	_, ok := descriptors[f]
	return ok
}

// BytesPerPixel is a shortcut of Describe(f).BytesPerPixel.
func (f Format) BytesPerPixel() int {
	return Describe(f).BytesPerPixel
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return fmt.Sprintf("%s (0x%02X)", Describe(f).Name, uint8(f))
}

// Decode expands a row-major payload into a sample grid. Unknown formats
// are decoded as single-channel 8-bit samples.
func Decode(f Format, payload []byte, width, height int) (*Grid, error) {
	desc := Describe(f)
	expected := width * height * desc.BytesPerPixel
	if len(payload) != expected {
		return nil, &IncompletePayloadError{Got: len(payload), Expected: expected}
	}
	grid := NewGrid(width, height, desc.Channels)
	if desc.BytesPerPixel == 2 {
		for i, o := 0, 0; i < len(payload); i, o = i+2, o+3 {
			grid.Pix[o], grid.Pix[o+1], grid.Pix[o+2] =
				ExpandRGB565(uint16(payload[i]) | uint16(payload[i+1])<<8)
		}
	} else {
		copy(grid.Pix, payload)
	}
	return grid, nil
}
