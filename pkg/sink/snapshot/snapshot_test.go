package snapshot

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uartcam/pkg/frame"
	"github.com/robotalks/uartcam/pkg/sink"
)

func TestWriter(t *testing.T) {
	dir, err := os.MkdirTemp("", "uartcam-png")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	w, err := NewWriter(filepath.Join(dir, "out"))
	require.NoError(t, err)

	fr, err := frame.FromPayload(frame.FormatGrayscale, 2, 2, []byte{0, 64, 128, 255})
	require.NoError(t, err)
	meta := sink.Meta{Port: "/dev/ttyUSB0", Seq: 7}
	require.NoError(t, w.HandleFrame(context.Background(), fr, meta))

	path := filepath.Join(dir, "out", "dev_ttyUSB0-000007-grayscale.png")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	require.Equal(t, color.Gray{Y: 128}, color.GrayModel.Convert(img.At(0, 1)))
}

func TestFileName(t *testing.T) {
	fr, err := frame.FromPayload(frame.Format(0x09), 1, 1, []byte{1})
	require.NoError(t, err)
	require.Equal(t, "COM4-000001-unknown.png", FileName(fr, sink.Meta{Port: "COM4", Seq: 1}))
	require.Equal(t, "frame-000000-unknown.png", FileName(fr, sink.Meta{}))
}
