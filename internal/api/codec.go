// Package api defines the KeeperService wire contract shared by the server
// and the client: the messages of strongholder.proto, their protobuf wire
// encoding and the service descriptor.
package api

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/mem"
	"google.golang.org/protobuf/proto"

	// registers the stock codec first so the one below replaces it
	_ "google.golang.org/grpc/encoding/proto"
)

// CodecName is the gRPC content subtype the service is served with.
const CodecName = "proto"

// codec encodes KeeperService messages in the protobuf wire format and hands
// any other proto.Message to the protobuf runtime.
type codec struct{}

func (codec) Marshal(v any) (mem.BufferSlice, error) {
	var (
		b   []byte
		err error
	)
	switch m := v.(type) {
	case message:
		b = m.appendWire(nil)
	case proto.Message:
		b, err = proto.Marshal(m)
	default:
		return nil, fmt.Errorf("api: cannot marshal %T", v)
	}
	if err != nil {
		return nil, err
	}
	return mem.BufferSlice{mem.SliceBuffer(b)}, nil
}

func (codec) Unmarshal(data mem.BufferSlice, v any) error {
	switch m := v.(type) {
	case message:
		return unmarshalWire(data.Materialize(), m)
	case proto.Message:
		return proto.Unmarshal(data.Materialize(), m)
	}
	return fmt.Errorf("api: cannot unmarshal into %T", v)
}

func (codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodecV2(codec{})
}
