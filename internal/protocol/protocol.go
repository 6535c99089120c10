// Package protocol converts between the simulation's actions and events and
// their wire representation.
//
// Actions travel as JSON objects tagged with a snake_case "type", or as the
// same object wrapped in a protobuf Struct for binary clients. Moves arrive as
// JSON, are checked against an embedded JSON schema and become events
// addressed to the session's hero.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
)

var (
	// ErrUnknownMove is returned for moves with an unrecognised type.
	ErrUnknownMove = errors.New("unknown move")
	// ErrInvalidMove is returned for moves that fail validation.
	ErrInvalidMove = errors.New("invalid move")
)

// BaseMessage lets clients route messages by type.
type BaseMessage struct {
	Type string `json:"type"`
}

// DecodeBase reads only the type tag of a message.
func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// EncodeAction renders an action as a JSON object tagged with its kind.
func EncodeAction(a actions.Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("encode action: nil")
	}
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Kind(), err)
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("encode %s: not an object", a.Kind())
	}
	kind, err := json.Marshal(a.Kind())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(kind) + 9)
	buf.WriteString(`{"type":`)
	buf.Write(kind)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}
