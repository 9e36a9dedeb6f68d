// Package v1 defines the homeworksync live feed protocol v1.
//
// The feed is server -> client only. Clients connect with the Subprotocol
// and receive one Envelope per websocket text message.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Version is embedded into every envelope.
const Version = "v1"

// Subprotocol must be offered by clients during the websocket handshake.
const Subprotocol = "homeworksync.feed.v1"

// Type constants (wire-stable).
const (
	TypeSessionAcquired    = "session.acquired"
	TypeSessionInvalidated = "session.invalidated"
	TypeSyncCompleted      = "sync.completed"
	TypeSyncFailed         = "sync.failed"
	TypeError              = "error"
)

var allowedTypes = map[string]struct{}{
	TypeSessionAcquired:    {},
	TypeSessionInvalidated: {},
	TypeSyncCompleted:      {},
	TypeSyncFailed:         {},
	TypeError:              {},
}

// Envelope is the canonical wire wrapper.
type Envelope struct {
	V       string          `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	TS      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload"`
}

// Validate checks the envelope header. Payloads are not inspected.
func (e Envelope) Validate() error {
	if e.V != Version {
		return fmt.Errorf("invalid protocol version: got=%q want=%q", e.V, Version)
	}
	if e.Type == "" {
		return errors.New("missing type")
	}
	if _, ok := allowedTypes[e.Type]; !ok {
		return fmt.Errorf("unsupported type: %s", e.Type)
	}
	if e.ID == "" {
		return errors.New("missing id")
	}
	if e.TS.IsZero() {
		return errors.New("missing ts")
	}
	if len(e.Payload) == 0 {
		return errors.New("missing payload")
	}
	return nil
}

// New builds an envelope around payload.
func New(typ, id string, ts time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Envelope{V: Version, Type: typ, ID: id, TS: ts.UTC(), Payload: raw}, nil
}
