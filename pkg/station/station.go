// Package station runs the receive loop of serial ports.
package station

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/uartcam/pkg/framework"
	"github.com/robotalks/uartcam/pkg/frame"
	"github.com/robotalks/uartcam/pkg/sink"
)

// Station repeats one-shot receive attempts on a single byte source and
// hands decoded frames to Handler. A Station and its Source must not be
// shared with other stations.
type Station struct {
	Name    string
	NodeID  string
	Source  io.Reader
	Handler sink.FrameHandler
	// Attempts limits the number of receive attempts, 0 for unlimited.
	Attempts int
	// IdleBackoff is the pause after an attempt without sync, so a source
	// at EOF is not polled in a busy loop. 0 means DefaultIdleBackoff,
	// negative disables it.
	IdleBackoff time.Duration

	receiver frame.Receiver
	seq      uint64

	statsLock sync.Mutex
	stats     Stats
}

// DefaultIdleBackoff is used when Station.IdleBackoff is 0.
const DefaultIdleBackoff = 100 * time.Millisecond

// Stats counts receive attempts by final state.
type Stats struct {
	Attempts int
	Outcomes map[frame.State]int
	LastErr  error
	LastSeen time.Time
}

// New creates a Station.
func New(name string, src io.Reader, h sink.FrameHandler) *Station {
	return &Station{Name: name, Source: src, Handler: h}
}

// String implements fmt.Stringer.
func (s *Station) String() string {
	return s.Name
}

// Stats returns a snapshot of the counters.
func (s *Station) Stats() Stats {
	s.statsLock.Lock()
	defer s.statsLock.Unlock()
	st := s.stats
	st.Outcomes = make(map[frame.State]int, len(s.stats.Outcomes))
	for k, v := range s.stats.Outcomes {
		st.Outcomes[k] = v
	}
	return st
}

// Run implements fx.Runnable. It returns nil after Attempts attempts, the
// context error on cancellation, or the transport error which ended it.
// A Source implementing io.Closer is closed on cancellation to unblock
// pending reads.
func (s *Station) Run(ctx context.Context) error {
	if c, ok := s.Source.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, c, func() error {
			return s.loop(ctx)
		})
	}
	return s.loop(ctx)
}

func (s *Station) loop(ctx context.Context) error {
	for n := 0; s.Attempts <= 0 || n < s.Attempts; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		fr, err := s.ReceiveOne()
		var terr *frame.TransportError
		if errors.As(err, &terr) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if frame.IsNoSync(err) && (s.Attempts <= 0 || n+1 < s.Attempts) {
			if err = s.idle(ctx); err != nil {
				return err
			}
			continue
		}
		if fr != nil && s.Handler != nil {
			if err = s.Handler.HandleFrame(ctx, fr, s.Meta()); err != nil {
				glog.Errorf("%s: handle frame %d: %v", s.Name, s.seq, err)
			}
		}
	}
	return nil
}

func (s *Station) idle(ctx context.Context) error {
	d := s.IdleBackoff
	if d == 0 {
		d = DefaultIdleBackoff
	}
	if d < 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ReceiveOne runs a single attempt and records its outcome. The frame is
// not passed to Handler.
func (s *Station) ReceiveOne() (*frame.Frame, error) {
	fr, err := s.receiver.Receive(s.Source)
	state := s.receiver.State()
	switch {
	case err == nil:
		s.seq++
		if glog.V(1) {
			glog.Infof("%s: frame %d %s %dx%d, %d bytes, skipped %d",
				s.Name, s.seq, fr.Header.Format, fr.Header.Width, fr.Header.Height,
				fr.Header.PayloadSize, s.receiver.Skipped())
		}
	case frame.IsNoSync(err):
		glog.V(2).Infof("%s: no frame (skipped %d bytes)", s.Name, s.receiver.Skipped())
	default:
		glog.Errorf("%s: %v", s.Name, err)
	}

	s.statsLock.Lock()
	s.stats.Attempts++
	if s.stats.Outcomes == nil {
		s.stats.Outcomes = make(map[frame.State]int)
	}
	s.stats.Outcomes[state]++
	if err == nil {
		s.stats.LastSeen = time.Now()
	} else if !frame.IsNoSync(err) {
		s.stats.LastErr = err
	}
	s.statsLock.Unlock()
	return fr, err
}

// Meta describes the last received frame.
func (s *Station) Meta() sink.Meta {
	return sink.Meta{
		NodeID:   s.NodeID,
		Port:     s.Name,
		Seq:      s.seq,
		Received: time.Now(),
	}
}
