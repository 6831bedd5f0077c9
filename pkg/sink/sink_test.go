package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/uartcam/pkg/framework"
	"github.com/robotalks/uartcam/pkg/frame"
)

func testFrame(t *testing.T) *frame.Frame {
	fr, err := frame.FromPayload(frame.FormatInvertRGB565, 2, 1, []byte{0x00, 0xf8, 0xe0, 0x07})
	require.NoError(t, err)
	return fr
}

func TestMux(t *testing.T) {
	failed := errors.New("disk full")
	var calls []string
	mux := (&Mux{}).Add(
		HandleFrameFunc(func(ctx context.Context, fr *frame.Frame, meta Meta) error {
			calls = append(calls, "first")
			return failed
		}),
		HandleFrameFunc(func(ctx context.Context, fr *frame.Frame, meta Meta) error {
			calls = append(calls, "second")
			return nil
		}),
		Discard,
	)
	err := mux.HandleFrame(context.Background(), testFrame(t), Meta{Port: "ttyUSB0", Seq: 1})
	require.Equal(t, &fx.AggregatedError{Errors: []error{failed}}, err)
	require.Equal(t, []string{"first", "second"}, calls)
}

func TestMessage(t *testing.T) {
	fr := testFrame(t)
	meta := Meta{
		NodeID:   "node-1",
		Port:     "/dev/ttyUSB0",
		Seq:      42,
		Received: time.Date(2024, 5, 6, 7, 8, 9, 10, time.UTC),
	}
	data, err := EncodeMessage(fr, meta)
	require.NoError(t, err)

	msg, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, "Invert RGB565", msg.FormatName)
	require.Equal(t, uint32(3), msg.Channels)
	require.Equal(t, fr.Grid.Pix, msg.Pixels)

	decoded, decodedMeta, err := FrameFromMessage(msg)
	require.NoError(t, err)
	require.Equal(t, fr, decoded)
	require.True(t, meta.Received.Equal(decodedMeta.Received))
	decodedMeta.Received = meta.Received
	require.Equal(t, meta, decodedMeta)
}
