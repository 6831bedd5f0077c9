// Package rawlog records received frames for later replay.
//
// A log file is a single zstd stream holding the magic "UARTCAM1" followed
// by a sequence of CBOR encoded Records.
package rawlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/robotalks/uartcam/pkg/frame"
	"github.com/robotalks/uartcam/pkg/sink"
)

// Magic starts every log stream.
const Magic = "UARTCAM1"

// FileExt is the extension of log files.
const FileExt = ".uclog.zst"

// ErrBadMagic indicates the stream is not a frame log.
var ErrBadMagic = errors.New("not a frame log")

// Record is a raw frame as received.
type Record struct {
	Timestamp int64  `cbor:"ts"`
	NodeID    string `cbor:"node,omitempty"`
	Port      string `cbor:"port"`
	Seq       uint64 `cbor:"seq"`
	Format    uint8  `cbor:"fmt"`
	Width     uint8  `cbor:"w"`
	Height    uint8  `cbor:"h"`
	Payload   []byte `cbor:"payload"`
}

// Frame decodes the recorded payload again.
func (r *Record) Frame() (*frame.Frame, error) {
	return frame.FromPayload(frame.Format(r.Format), r.Width, r.Height, r.Payload)
}

// Meta returns the receive metadata of the record.
func (r *Record) Meta() sink.Meta {
	return sink.Meta{
		NodeID:   r.NodeID,
		Port:     r.Port,
		Seq:      r.Seq,
		Received: time.Unix(0, r.Timestamp),
	}
}

// Writer implements sink.FrameHandler appending records to a log.
type Writer struct {
	lock   sync.Mutex
	closer io.Closer
	zw     *zstd.Encoder
	enc    *cbor.Encoder
	path   string
}

// Create creates <dir>/<timestamp>_<prefix>.uclog.zst.
func Create(dir, prefix string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s%s", time.Now().Format("20060102_150405"), prefix, FileExt))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer, w.path = f, path
	return w, nil
}

// NewWriter starts a log on w.
func NewWriter(w io.Writer) (*Writer, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}
	if _, err = io.WriteString(zw, Magic); err != nil {
		zw.Close()
		return nil, err
	}
	return &Writer{zw: zw, enc: cbor.NewEncoder(zw)}, nil
}

// Path returns the file path if created by Create.
func (w *Writer) Path() string {
	return w.path
}

// Record appends a record and flushes it.
func (w *Writer) Record(rec *Record) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.zw == nil {
		return fmt.Errorf("raw log writer is closed")
	}
	if err := w.enc.Encode(rec); err != nil {
		return err
	}
	return w.zw.Flush()
}

// HandleFrame implements sink.FrameHandler.
func (w *Writer) HandleFrame(ctx context.Context, fr *frame.Frame, meta sink.Meta) error {
	ts := meta.Received
	if ts.IsZero() {
		ts = time.Now()
	}
	return w.Record(&Record{
		Timestamp: ts.UnixNano(),
		NodeID:    meta.NodeID,
		Port:      meta.Port,
		Seq:       meta.Seq,
		Format:    uint8(fr.Header.Format),
		Width:     fr.Header.Width,
		Height:    fr.Header.Height,
		Payload:   fr.Payload,
	})
}

// Close finishes the stream.
func (w *Writer) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.zw == nil {
		return nil
	}
	err := w.zw.Close()
	w.zw = nil
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Reader iterates records of a log.
type Reader struct {
	zr     *zstd.Decoder
	dec    *cbor.Decoder
	closer io.Closer
}

// Open opens a log file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader reads a log from r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	magic := make([]byte, len(Magic))
	if _, err = io.ReadFull(zr, magic); err != nil || string(magic) != Magic {
		zr.Close()
		return nil, ErrBadMagic
	}
	return &Reader{zr: zr, dec: cbor.NewDecoder(zr)}, nil
}

// Next returns the next record, or io.EOF at the end of the log.
func (r *Reader) Next() (*Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Replay hands every record to h as a decoded frame, stopping after limit
// records if limit is positive.
func (r *Reader) Replay(ctx context.Context, h sink.FrameHandler, limit int) (int, error) {
	count := 0
	for limit <= 0 || count < limit {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		fr, err := rec.Frame()
		if err != nil {
			return count, fmt.Errorf("record %d: %w", count, err)
		}
		if err = h.HandleFrame(ctx, fr, rec.Meta()); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Close releases the reader.
func (r *Reader) Close() error {
	r.zr.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
