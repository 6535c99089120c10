package protocol

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/model"
)

// Move types.
const (
	MoveStop            = "stop"
	MoveConclude        = "conclude"
	MoveStartMotion     = "start_motion"
	MoveHandActivation  = "hand_activation"
	MoveInventoryUpdate = "inventory_update"
	MoveCraft           = "craft"
)

var knownMoves = map[string]struct{}{
	MoveStop:            {},
	MoveConclude:        {},
	MoveStartMotion:     {},
	MoveHandActivation:  {},
	MoveInventoryUpdate: {},
	MoveCraft:           {},
}

//go:embed schemas/move.schema.json
var moveSchemaJSON string

var moveSchema = jsonschema.MustCompileString("move.schema.json", moveSchemaJSON)

// Move is the wire form of a player input.
type Move struct {
	Type           string               `json:"type"`
	Bearing        *float64             `json:"bearing,omitempty"`
	Hand           *model.Hand          `json:"hand,omitempty"`
	ObjectID       *model.EntityID      `json:"object_id,omitempty"`
	InventoryIndex *int                 `json:"inventory_index,omitempty"`
	UpdateVariant  *model.UpdateVariant `json:"update_variant,omitempty"`
	Assembly       *craft.Assembly      `json:"assembly,omitempty"`
}

// DecodeMove validates a move and turns it into an event for hero.
func DecodeMove(b []byte, hero model.EntityID) (events.Event, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	if _, ok := knownMoves[base.Type]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMove, base.Type)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	if err := moveSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}

	var m Move
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	return m.Event(hero)
}

// Event converts a decoded move into an event for hero.
func (m Move) Event(hero model.EntityID) (events.Event, error) {
	switch m.Type {
	case MoveStop:
		return events.Stop{Entity: hero}, nil
	case MoveConclude:
		return events.Conclude{Entity: hero}, nil
	case MoveStartMotion:
		if m.Bearing == nil {
			return nil, fmt.Errorf("%w: missing bearing", ErrInvalidMove)
		}
		return events.StartMoving{Entity: hero, Bearing: *m.Bearing}, nil
	case MoveHandActivation:
		if m.Hand == nil {
			return nil, fmt.Errorf("%w: missing hand", ErrInvalidMove)
		}
		return events.HandActivation{Entity: hero, Hand: *m.Hand, ObjectID: m.ObjectID}, nil
	case MoveInventoryUpdate:
		if m.Hand == nil || m.InventoryIndex == nil || m.UpdateVariant == nil {
			return nil, fmt.Errorf("%w: incomplete inventory update", ErrInvalidMove)
		}
		if *m.UpdateVariant == model.UpdateMerge {
			return events.InventoryMerge{Entity: hero, Hand: *m.Hand, Index: *m.InventoryIndex}, nil
		}
		return events.InventorySwap{Entity: hero, Hand: *m.Hand, Index: *m.InventoryIndex}, nil
	case MoveCraft:
		if m.Assembly == nil {
			return nil, fmt.Errorf("%w: missing assembly", ErrInvalidMove)
		}
		return events.Craft{Entity: hero, Assembly: m.Assembly}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMove, m.Type)
	}
}

// EncodeMove renders the move a client sends to produce ev.
func EncodeMove(ev events.Event) ([]byte, error) {
	var m Move
	switch ev := ev.(type) {
	case events.Stop:
		m.Type = MoveStop
	case events.Conclude:
		m.Type = MoveConclude
	case events.StartMoving:
		m.Type = MoveStartMotion
		m.Bearing = &ev.Bearing
	case events.HandActivation:
		m.Type = MoveHandActivation
		m.Hand = &ev.Hand
		m.ObjectID = ev.ObjectID
	case events.InventorySwap:
		variant := model.UpdateSwap
		m.Type, m.Hand, m.InventoryIndex, m.UpdateVariant = MoveInventoryUpdate, &ev.Hand, &ev.Index, &variant
	case events.InventoryMerge:
		variant := model.UpdateMerge
		m.Type, m.Hand, m.InventoryIndex, m.UpdateVariant = MoveInventoryUpdate, &ev.Hand, &ev.Index, &variant
	case events.Craft:
		m.Type = MoveCraft
		m.Assembly = ev.Assembly
	default:
		return nil, fmt.Errorf("%w: no move produces %s", ErrUnknownMove, ev.Kind())
	}
	return json.Marshal(m)
}
