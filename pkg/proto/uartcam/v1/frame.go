// Package v1 contains the wire messages of frame publication, see frame.proto.
package v1

import (
	"github.com/golang/protobuf/proto"
	timestamp "github.com/golang/protobuf/ptypes/timestamp"
)

// Frame is the message form of a decoded frame.
type Frame struct {
	NodeId     string               `protobuf:"bytes,1,opt,name=node_id,json=nodeId,proto3" json:"node_id,omitempty"`
	Port       string               `protobuf:"bytes,2,opt,name=port,proto3" json:"port,omitempty"`
	Seq        uint64               `protobuf:"varint,3,opt,name=seq,proto3" json:"seq,omitempty"`
	Received   *timestamp.Timestamp `protobuf:"bytes,4,opt,name=received,proto3" json:"received,omitempty"`
	Format     uint32               `protobuf:"varint,5,opt,name=format,proto3" json:"format,omitempty"`
	FormatName string               `protobuf:"bytes,6,opt,name=format_name,json=formatName,proto3" json:"format_name,omitempty"`
	Width      uint32               `protobuf:"varint,7,opt,name=width,proto3" json:"width,omitempty"`
	Height     uint32               `protobuf:"varint,8,opt,name=height,proto3" json:"height,omitempty"`
	Channels   uint32               `protobuf:"varint,9,opt,name=channels,proto3" json:"channels,omitempty"`
	Payload    []byte               `protobuf:"bytes,10,opt,name=payload,proto3" json:"payload,omitempty"`
	Pixels     []byte               `protobuf:"bytes,11,opt,name=pixels,proto3" json:"pixels,omitempty"`
}

// Reset implements proto.Message.
func (m *Frame) Reset() { *m = Frame{} }

// String implements proto.Message.
func (m *Frame) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Frame) ProtoMessage() {}

func init() {
	proto.RegisterType((*Frame)(nil), "uartcam.v1.Frame")
}
