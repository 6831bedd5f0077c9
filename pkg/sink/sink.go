// Package sink delivers decoded frames to their consumers.
package sink

import (
	"context"
	"time"

	fx "github.com/robotalks/uartcam/pkg/framework"
	"github.com/robotalks/uartcam/pkg/frame"
)

// Meta describes where and when a frame was received.
type Meta struct {
	NodeID   string
	Port     string
	Seq      uint64
	Received time.Time
}

// FrameHandler consumes decoded frames. The frame is owned by the handler
// set once passed in and must not be modified by any of them.
type FrameHandler interface {
	HandleFrame(context.Context, *frame.Frame, Meta) error
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *frame.Frame, Meta) error

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, fr *frame.Frame, meta Meta) error {
	return f(ctx, fr, meta)
}

// Mux dispatches a frame to all handlers in order. A failing handler doesn't
// prevent the others from being called.
type Mux struct {
	Handlers []FrameHandler
}

// Add appends handlers.
func (m *Mux) Add(handlers ...FrameHandler) *Mux {
	m.Handlers = append(m.Handlers, handlers...)
	return m
}

// HandleFrame implements FrameHandler.
func (m *Mux) HandleFrame(ctx context.Context, fr *frame.Frame, meta Meta) error {
	var errs fx.AggregatedError
	for _, h := range m.Handlers {
		errs.Add(h.HandleFrame(ctx, fr, meta))
	}
	return errs.Aggregate()
}

// Discard is a FrameHandler dropping all frames.
var Discard = HandleFrameFunc(func(context.Context, *frame.Frame, Meta) error { return nil })
