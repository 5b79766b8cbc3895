package nakama

import (
	"github.com/heroiclabs/nakama-common/rtapi"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var (
	marshaler   = protojson.MarshalOptions{UseProtoNames: true}
	unmarshaler = protojson.UnmarshalOptions{DiscardUnknown: true}
)

func encodeEnvelope(envelope *rtapi.Envelope) ([]byte, error) {
	return marshaler.Marshal(envelope)
}

func decodeEnvelope(data []byte) (*rtapi.Envelope, error) {
	envelope := &rtapi.Envelope{}
	if err := unmarshaler.Unmarshal(data, envelope); err != nil {
		return nil, err
	}

	return envelope, nil
}

func encodeMessage(message proto.Message) ([]byte, error) {
	return marshaler.Marshal(message)
}

func decodeMessage(data []byte, message proto.Message) error {
	return unmarshaler.Unmarshal(data, message)
}
