// Package websocket pushes decoded frames to live viewers.
package websocket

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/uartcam/pkg/frame"
	"github.com/robotalks/uartcam/pkg/sink"
)

// DefaultQueueLen is the number of frames buffered per viewer.
const DefaultQueueLen = 4

// Hub is an http.Handler accepting websocket viewers, and a
// sink.FrameHandler sending each frame message to all of them as a binary
// message. Viewers which fall behind by more than QueueLen frames are
// disconnected.
type Hub struct {
	QueueLen int

	lock    sync.RWMutex
	viewers map[*viewer]struct{}
	handler http.Handler
}

type viewer struct {
	addr   string
	sendCh chan []byte
	once   sync.Once
}

func (v *viewer) close() {
	v.once.Do(func() {
		close(v.sendCh)
	})
}

// NewHub creates a Hub.
func NewHub() *Hub {
	h := &Hub{QueueLen: DefaultQueueLen, viewers: make(map[*viewer]struct{})}
	h.handler = websocket.Handler(h.serve)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.viewers)
}

// HandleFrame implements sink.FrameHandler.
func (h *Hub) HandleFrame(ctx context.Context, fr *frame.Frame, meta sink.Meta) error {
	data, err := sink.EncodeMessage(fr, meta)
	if err != nil {
		return err
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	for v := range h.viewers {
		select {
		case v.sendCh <- data:
		default:
			glog.Warningf("viewer %s too slow, dropped", v.addr)
			delete(h.viewers, v)
			v.close()
		}
	}
	return nil
}

func (h *Hub) serve(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	queueLen := h.QueueLen
	if queueLen <= 0 {
		queueLen = DefaultQueueLen
	}
	v := &viewer{addr: conn.Request().RemoteAddr, sendCh: make(chan []byte, queueLen)}
	h.lock.Lock()
	h.viewers[v] = struct{}{}
	h.lock.Unlock()
	glog.V(1).Infof("viewer %s connected", v.addr)

	go func() {
		// viewers never send anything, reading only detects close.
		io.Copy(ioutil.Discard, conn)
		h.remove(v)
	}()
	for data := range v.sendCh {
		if err := websocket.Message.Send(conn, data); err != nil {
			glog.V(1).Infof("viewer %s: %v", v.addr, err)
			h.remove(v)
			break
		}
	}
	conn.Close()
	glog.V(1).Infof("viewer %s disconnected", v.addr)
}

func (h *Hub) remove(v *viewer) {
	h.lock.Lock()
	delete(h.viewers, v)
	h.lock.Unlock()
	v.close()
}

// Close disconnects all viewers.
func (h *Hub) Close() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	for v := range h.viewers {
		delete(h.viewers, v)
		v.close()
	}
	return nil
}
