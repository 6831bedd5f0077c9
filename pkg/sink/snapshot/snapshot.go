// Package snapshot saves decoded frames as PNG snapshots.
package snapshot

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/uartcam/pkg/frame"
	"github.com/robotalks/uartcam/pkg/sink"
)

// Writer implements sink.FrameHandler writing one file per frame.
type Writer struct {
	Dir string
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{Dir: dir}, nil
}

// FileName builds <port>-<seq>-<format>.png with path separators of the port
// replaced.
func FileName(fr *frame.Frame, meta sink.Meta) string {
	port := strings.Trim(strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(meta.Port), "_")
	if port == "" {
		port = "frame"
	}
	format := strings.ToLower(strings.Fields(fr.Descriptor.Name)[0])
	return fmt.Sprintf("%s-%06d-%s.png", port, meta.Seq, format)
}

// HandleFrame implements sink.FrameHandler.
func (w *Writer) HandleFrame(ctx context.Context, fr *frame.Frame, meta sink.Meta) error {
	path := filepath.Join(w.Dir, FileName(fr, meta))
	if err := Save(path, fr); err != nil {
		return err
	}
	glog.V(1).Infof("saved %s", path)
	return nil
}

// Save writes the frame to path as PNG.
func Save(path string, fr *frame.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = png.Encode(f, fr.Grid.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
