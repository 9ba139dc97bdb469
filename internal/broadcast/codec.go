package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes a batch into one websocket frame.
type Codec interface {
	Encode(batch []Message) ([]byte, error)
	FrameType() int
}

type jsonCodec struct{}

func (jsonCodec) Encode(batch []Message) ([]byte, error) { return json.Marshal(batch) }
func (jsonCodec) FrameType() int                         { return websocket.TextMessage }

type msgpackCodec struct{}

func (msgpackCodec) Encode(batch []Message) ([]byte, error) { return msgpack.Marshal(batch) }
func (msgpackCodec) FrameType() int                         { return websocket.BinaryMessage }

// NewCodec returns the codec for an encoding name: "json" (default) or "msgpack".
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return jsonCodec{}, nil
	case "msgpack":
		return msgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown broadcast encoding %q", name)
}
