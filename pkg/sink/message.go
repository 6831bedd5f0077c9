package sink

import (
	"fmt"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"

	"github.com/robotalks/uartcam/pkg/frame"
	pb "github.com/robotalks/uartcam/pkg/proto/uartcam/v1"
)

// NewMessage converts a frame into its wire message.
func NewMessage(fr *frame.Frame, meta Meta) (*pb.Frame, error) {
	msg := &pb.Frame{
		NodeId:     meta.NodeID,
		Port:       meta.Port,
		Seq:        meta.Seq,
		Format:     uint32(fr.Header.Format),
		FormatName: fr.Descriptor.Name,
		Width:      uint32(fr.Header.Width),
		Height:     uint32(fr.Header.Height),
		Payload:    fr.Payload,
	}
	if fr.Grid != nil {
		msg.Channels = uint32(fr.Grid.Channels)
		msg.Pixels = fr.Grid.Pix
	}
	if !meta.Received.IsZero() {
		ts, err := ptypes.TimestampProto(meta.Received)
		if err != nil {
			return nil, err
		}
		msg.Received = ts
	}
	return msg, nil
}

// EncodeMessage encodes a frame into wire bytes.
func EncodeMessage(fr *frame.Frame, meta Meta) ([]byte, error) {
	msg, err := NewMessage(fr, meta)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(msg)
}

// DecodeMessage decodes wire bytes into a message.
func DecodeMessage(data []byte) (*pb.Frame, error) {
	var msg pb.Frame
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// FrameFromMessage rebuilds a frame from a message by decoding its payload
// again, and returns the meta it carries.
func FrameFromMessage(msg *pb.Frame) (*frame.Frame, Meta, error) {
	meta := Meta{NodeID: msg.NodeId, Port: msg.Port, Seq: msg.Seq}
	if msg.Received != nil {
		t, err := ptypes.Timestamp(msg.Received)
		if err != nil {
			return nil, meta, err
		}
		meta.Received = t
	}
	if msg.Format > 0xff || msg.Width > 0xff || msg.Height > 0xff {
		return nil, meta, fmt.Errorf("invalid frame message: format=%d %dx%d", msg.Format, msg.Width, msg.Height)
	}
	fr, err := frame.FromPayload(frame.Format(msg.Format), uint8(msg.Width), uint8(msg.Height), msg.Payload)
	return fr, meta, err
}
