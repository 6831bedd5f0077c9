package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReceive(t *testing.T) {
	testCases := []struct {
		name   string
		in     []byte
		state  State
		err    error
		expect *Frame
	}{
		{
			name:  "grayscale column",
			in:    []byte{0xAA, 0x55, 0x02, 0x00, 0x00, 0x00, 0x02, 0x01, 0x02, 0x10, 0x20},
			state: StateDecoded,
			expect: &Frame{
				Header:     Header{PayloadSize: 2, Format: FormatGrayscale, Width: 1, Height: 2},
				Descriptor: Describe(FormatGrayscale),
				Payload:    []byte{0x10, 0x20},
				Grid:       &Grid{Width: 1, Height: 2, Channels: 1, Pix: []uint8{0x10, 0x20}},
			},
		},
		{
			name:  "noise before preamble",
			in:    []byte{0x00, 0xAA, 0x13, 0xAA, 0x55, 0x01, 0x00, 0x00, 0x00, 0x01, 0x01, 0x01, 0xff},
			state: StateDecoded,
			expect: &Frame{
				Header:     Header{PayloadSize: 1, Format: FormatThreshold, Width: 1, Height: 1},
				Descriptor: Describe(FormatThreshold),
				Payload:    []byte{0xff},
				Grid:       &Grid{Width: 1, Height: 1, Channels: 1, Pix: []uint8{0xff}},
			},
		},
		{
			name:  "size mismatch",
			in:    []byte{0xAA, 0x55, 0x04, 0x00, 0x00, 0x00, 0x02, 0x02, 0x01, 0x7F, 0x80},
			state: StateSizeMismatch,
			err:   &SizeMismatchError{Expected: 2, Declared: 4},
		},
		{
			name:  "no sync",
			in:    []byte{0x01, 0x02, 0x03, 0x55, 0xAA},
			state: StateNoSync,
			err:   ErrNoSync,
		},
		{
			name:  "incomplete header",
			in:    []byte{0xAA, 0x55, 0x02, 0x00, 0x00},
			state: StateIncompleteHeader,
			err:   &IncompleteHeaderError{Got: 3},
		},
		{
			name:  "incomplete payload",
			in:    []byte{0xAA, 0x55, 0x04, 0x00, 0x00, 0x00, 0x00, 0x02, 0x01, 0x01, 0x02, 0x03},
			state: StateIncompletePayload,
			err:   &IncompletePayloadError{Got: 3, Expected: 4},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var r Receiver
			f, err := r.Receive(newChunkedSource(3, tc.in...))
			require.Equal(t, tc.err, err)
			require.Equal(t, tc.expect, f)
			require.Equal(t, tc.state, r.State())
			require.True(t, r.State().IsTerminal())
		})
	}
}

func TestReceiveStateTransitions(t *testing.T) {
	var states []State
	r := &Receiver{Notifier: StateChangedFunc(func(s State) {
		states = append(states, s)
	})}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, FormatInvertRGB565, 2, 1, []byte{0x00, 0xf8, 0x1f, 0x00}))
	f, err := r.Receive(&buf)
	require.NoError(t, err)
	require.Equal(t, []uint8{0xf8, 0, 0, 0, 0, 0xf8}, f.Grid.Pix)
	require.Equal(t, []State{StateAwaitingSync, StateAwaitingHeader, StateAwaitingPayload, StateDecoded}, states)

	states = nil
	_, err = r.Receive(&buf)
	require.True(t, IsNoSync(err))
	require.Equal(t, []State{StateAwaitingSync, StateNoSync}, states)
}

func TestReceiveRestartsAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xAA, 0x55, 0x09, 0x00, 0x00, 0x00, 0x02, 0x01, 0x01})
	require.NoError(t, WriteFrame(&buf, FormatSobel, 2, 2, []byte{1, 2, 3, 4}))

	var r Receiver
	_, err := r.Receive(&buf)
	require.Equal(t, &SizeMismatchError{Expected: 1, Declared: 9}, err)

	f, err := r.Receive(&buf)
	require.NoError(t, err)
	require.Equal(t, FormatSobel, f.Header.Format)
	require.Equal(t, []uint8{1, 2, 3, 4}, f.Grid.Pix)
}

func TestReceiveTransportError(t *testing.T) {
	broken := errors.New("device removed")
	src := &chunkedSource{data: []byte{0xAA, 0x55, 0x01}, chunk: 8, err: broken}
	var r Receiver
	_, err := r.Receive(src)
	require.Error(t, err)
	require.True(t, errors.Is(err, broken))
	require.Equal(t, StateTransportError, r.State())
	require.Equal(t, &TransportError{State: StateAwaitingHeader, Err: broken}, err)
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, FormatGrayscale, 2, 1, []byte{0x07, 0x09}))
	require.Equal(t, []byte{
		0xAA, 0x55,
		0x02, 0x00, 0x00, 0x00,
		0x02, 0x02, 0x01,
		0x07, 0x09,
	}, buf.Bytes())
}

func TestWriteFrameSizeMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, FormatGrayscale, 2, 2, []byte{1})
	require.Equal(t, &SizeMismatchError{Expected: 4, Declared: 1}, err)
	require.Zero(t, buf.Len())
}

func TestFromPayload(t *testing.T) {
	f, err := FromPayload(FormatThreshold, 2, 1, []byte{0, 0xff})
	require.NoError(t, err)
	require.Equal(t, "Threshold 8-bit", f.Descriptor.Name)
	require.Equal(t, []uint8{0, 0xff}, f.Grid.Pix)

	_, err = FromPayload(FormatInvertRGB565, 2, 1, []byte{0, 0xff})
	require.Equal(t, &SizeMismatchError{Expected: 4, Declared: 2}, err)
}
