package bioparservice

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of the service messages.
const CodecName = "gob"

// gobCodec carries the messages as gob so that NaN reflectance survives
// the wire unchanged.
type gobCodec struct{}

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(gobCodec{})
}
