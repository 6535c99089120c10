package protocol

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
)

// EncodeActionStruct converts an action to a protobuf Struct carrying the
// same fields as its JSON form.
func EncodeActionStruct(a actions.Action) (*structpb.Struct, error) {
	b, err := EncodeAction(a)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Kind(), err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Kind(), err)
	}
	return s, nil
}

// MarshalActionProto renders an action in protobuf binary form.
func MarshalActionProto(a actions.Action) ([]byte, error) {
	s, err := EncodeActionStruct(a)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// UnmarshalProto parses a binary action frame.
func UnmarshalProto(b []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("decode action frame: %w", err)
	}
	return s, nil
}

// StructType returns the type tag of a decoded binary frame.
func StructType(s *structpb.Struct) string {
	if s == nil {
		return ""
	}
	return s.GetFields()["type"].GetStringValue()
}

// StructJSON renders a decoded binary frame as JSON for logs.
func StructJSON(s *structpb.Struct) (string, error) {
	b, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
