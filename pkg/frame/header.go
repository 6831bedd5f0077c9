package frame

import "encoding/binary"

// HeaderSize is the length of the header following the preamble.
const HeaderSize = 7

// Header is the fixed header of a frame.
type Header struct {
	PayloadSize uint32
	Format      Format
	Width       uint8
	Height      uint8
}

// NewHeader creates a header with the payload size derived from the format
// and dimensions.
func NewHeader(f Format, width, height uint8) Header {
	h := Header{Format: f, Width: width, Height: height}
	h.PayloadSize = h.ExpectedSize()
	return h
}

// ParseHeader decodes exactly HeaderSize bytes. It does not validate the
// payload size, see Validate.
func ParseHeader(b []byte) (Header, error) {
	if len(b) != HeaderSize {
		return Header{}, &IncompleteHeaderError{Got: len(b)}
	}
	return Header{
		PayloadSize: binary.LittleEndian.Uint32(b[0:4]),
		Format:      Format(b[4]),
		Width:       b[5],
		Height:      b[6],
	}, nil
}

// ExpectedSize computes width * height * bytes-per-pixel.
func (h Header) ExpectedSize() uint32 {
	return uint32(h.Width) * uint32(h.Height) * uint32(h.Format.BytesPerPixel())
}

// Validate checks the declared payload size against the format and
// dimensions.
func (h Header) Validate() error {
	if expected := h.ExpectedSize(); h.PayloadSize != expected {
		return &SizeMismatchError{Expected: expected, Declared: h.PayloadSize}
	}
	return nil
}

// MarshalBinary encodes the header without the preamble.
func (h Header) MarshalBinary() ([]byte, error) {
	return h.appendTo(make([]byte, 0, HeaderSize)), nil
}

func (h Header) appendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, h.PayloadSize)
	return append(b, byte(h.Format), h.Width, h.Height)
}
