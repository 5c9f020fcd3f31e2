package interfaces

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// EventType names a notification emitted by a successful mutation.
type EventType string

const (
	EventInitialized           EventType = "Initialized"
	EventGovernorChange        EventType = "GovernorChange"
	EventTokenRegistered       EventType = "TokenRegistered"
	EventTokenPausedUpdate     EventType = "TokenPausedUpdate"
	EventTokenAddressUpdate    EventType = "TokenAddressUpdate"
	EventValidatorStatusUpdate EventType = "ValidatorStatusUpdate"
	EventBridgeManagerUpdate   EventType = "BridgeManagerUpdate"
)

// Event is a structured state change emitted by the engine.
type Event interface {
	EventType() EventType
}

// Initialized is emitted once, when the first governor is set.
type Initialized struct {
	Governor common.Address `json:"governor"`
}

// GovernorChange is emitted when control is handed to a new governor.
type GovernorChange struct {
	Governor common.Address `json:"governor"`
}

// TokenRegistered is emitted by a successful token registration.
type TokenRegistered struct {
	TokenID      TokenID        `json:"token_id"`
	TokenAddress common.Address `json:"token_address"`
}

// TokenPausedUpdate is emitted on every pause flag write, including no-op writes.
type TokenPausedUpdate struct {
	TokenID TokenID `json:"token_id"`
	Paused  bool    `json:"paused"`
}

// TokenAddressUpdate is emitted when a token address is rotated.
type TokenAddressUpdate struct {
	TokenID      TokenID        `json:"token_id"`
	TokenAddress common.Address `json:"token_address"`
}

// ValidatorStatusUpdate is emitted on every validator status write.
type ValidatorStatusUpdate struct {
	Validator common.Address `json:"validator"`
	Active    bool           `json:"active"`
}

// BridgeManagerUpdate is emitted when the bridge manager is replaced.
type BridgeManagerUpdate struct {
	BridgeManager common.Address `json:"bridge_manager"`
}

func (Initialized) EventType() EventType           { return EventInitialized }
func (GovernorChange) EventType() EventType        { return EventGovernorChange }
func (TokenRegistered) EventType() EventType       { return EventTokenRegistered }
func (TokenPausedUpdate) EventType() EventType     { return EventTokenPausedUpdate }
func (TokenAddressUpdate) EventType() EventType    { return EventTokenAddressUpdate }
func (ValidatorStatusUpdate) EventType() EventType { return EventValidatorStatusUpdate }
func (BridgeManagerUpdate) EventType() EventType   { return EventBridgeManagerUpdate }

// EventRecord is an event together with its position in the emission order.
// Sequence numbers start at 1 and have no gaps.
type EventRecord struct {
	Seq   uint64
	Event Event
}

type eventRecordJSON struct {
	Seq  uint64          `json:"seq"`
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the record as {"seq", "type", "data"}.
func (r EventRecord) MarshalJSON() ([]byte, error) {
	if r.Event == nil {
		return nil, fmt.Errorf("event record %d has no event", r.Seq)
	}
	data, err := json.Marshal(r.Event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventRecordJSON{
		Seq:  r.Seq,
		Type: r.Event.EventType(),
		Data: data,
	})
}

// UnmarshalJSON decodes a record produced by MarshalJSON.
func (r *EventRecord) UnmarshalJSON(b []byte) error {
	var raw eventRecordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var ev Event
	switch raw.Type {
	case EventInitialized:
		ev = &Initialized{}
	case EventGovernorChange:
		ev = &GovernorChange{}
	case EventTokenRegistered:
		ev = &TokenRegistered{}
	case EventTokenPausedUpdate:
		ev = &TokenPausedUpdate{}
	case EventTokenAddressUpdate:
		ev = &TokenAddressUpdate{}
	case EventValidatorStatusUpdate:
		ev = &ValidatorStatusUpdate{}
	case EventBridgeManagerUpdate:
		ev = &BridgeManagerUpdate{}
	default:
		return fmt.Errorf("unknown event type %q", raw.Type)
	}

	if err := json.Unmarshal(raw.Data, ev); err != nil {
		return fmt.Errorf("could not decode %s event: %w", raw.Type, err)
	}

	r.Seq = raw.Seq
	r.Event = deref(ev)
	return nil
}

// deref turns the decode target back into the value type the engine emits.
func deref(ev Event) Event {
	switch e := ev.(type) {
	case *Initialized:
		return *e
	case *GovernorChange:
		return *e
	case *TokenRegistered:
		return *e
	case *TokenPausedUpdate:
		return *e
	case *TokenAddressUpdate:
		return *e
	case *ValidatorStatusUpdate:
		return *e
	case *BridgeManagerUpdate:
		return *e
	}
	return ev
}

// Emitter receives every event record in emission order.
type Emitter interface {
	Emit(EventRecord)
}

// NoopEmitter discards all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(EventRecord) {}
