package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/uartcam/pkg/frame"
	"github.com/robotalks/uartcam/pkg/sink"
)

// DefaultPublishTimeout bounds the wait for a publish acknowledgement.
const DefaultPublishTimeout = 2 * time.Second

// Publisher implements sink.FrameHandler by publishing frame messages to
// <prefix><node>/<port>/frame. While running, <prefix><node>/meta carries a
// retained description of the node.
type Publisher struct {
	Queue          *Queue
	NodeID         string
	Ports          []string
	PublishTimeout time.Duration
}

// NodeMeta is the retained description of a publishing node.
type NodeMeta struct {
	NodeID  string   `json:"node_id"`
	Ports   []string `json:"ports,omitempty"`
	Formats []string `json:"formats"`
}

// NewPublisher creates a Publisher from a broker URL.
func NewPublisher(brokerURL, nodeID string) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+MetaTopic(nodeID), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("uartcam:" + nodeID)
	}
	return &Publisher{
		Queue:          NewQueue(opts, topicPrefix),
		NodeID:         nodeID,
		PublishTimeout: DefaultPublishTimeout,
	}, nil
}

// MetaTopic is the topic of the retained node description.
func MetaTopic(nodeID string) string {
	return nodeID + "/meta"
}

// FrameTopic is the topic frames from a port are published to.
func FrameTopic(nodeID, port string) string {
	return nodeID + "/" + TopicName(port) + "/frame"
}

// TopicName turns a device path into a single topic level.
func TopicName(port string) string {
	name := strings.Trim(strings.NewReplacer("/", "_", "\\", "_", "+", "_", "#", "_").Replace(port), "_")
	if name == "" {
		return "_"
	}
	return name
}

// Run connects and keeps the node description published until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	meta := NodeMeta{NodeID: p.NodeID, Ports: p.Ports}
	for _, f := range frame.Formats() {
		meta.Formats = append(meta.Formats, f.String())
	}
	data, err := json.Marshal(&meta)
	if err != nil {
		return err
	}
	p.Queue.OnConnect = func(q *Queue) {
		q.PubWith(MetaTopic(p.NodeID), data, 1, true)
	}
	if err := p.Queue.Connect(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	<-ctx.Done()
	p.Queue.PubWith(MetaTopic(p.NodeID), nil, 1, true).WaitTimeout(p.timeout())
	p.Queue.Close()
	return ctx.Err()
}

// HandleFrame implements sink.FrameHandler.
func (p *Publisher) HandleFrame(ctx context.Context, fr *frame.Frame, meta sink.Meta) error {
	data, err := sink.EncodeMessage(fr, meta)
	if err != nil {
		return err
	}
	token := p.Queue.PubWith(FrameTopic(p.NodeID, meta.Port), data, 0, false)
	if !token.WaitTimeout(p.timeout()) {
		return fmt.Errorf("publish frame %d: timeout", meta.Seq)
	}
	return token.Error()
}

func (p *Publisher) timeout() time.Duration {
	if p.PublishTimeout > 0 {
		return p.PublishTimeout
	}
	return DefaultPublishTimeout
}

// Watch subscribes to frames published by any node and port which match
// nodeID and port (either may be "+"), and hands decoded frames to h.
func Watch(ctx context.Context, q *Queue, nodeID, port string, h sink.FrameHandler) *Subscription {
	if port != "+" {
		port = TopicName(port)
	}
	return q.Sub(nodeID+"/"+port+"/frame", func(topic string, payload []byte) {
		msg, err := sink.DecodeMessage(payload)
		if err != nil {
			glog.Warningf("%s: bad message: %v", topic, err)
			return
		}
		fr, meta, err := sink.FrameFromMessage(msg)
		if err != nil {
			glog.Warningf("%s: decode error: %v", topic, err)
			return
		}
		if err = h.HandleFrame(ctx, fr, meta); err != nil {
			glog.Errorf("%s: handler error: %v", topic, err)
		}
	})
}
