package router

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind identifies a category of server event ("new_lead", "invoice_paid", ...).
type Kind string

// Payload is the loosely typed body of a server event. Accessors are
// forgiving: missing keys and type mismatches degrade to zero values rather
// than errors, since payload shape varies across console versions.
type Payload map[string]any

// String returns the value for key stringified, or "" when absent or null.
// Numbers render without float artifacts (7.0 becomes "7").
func (p Payload) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Bool returns the value for key as a bool, false when absent or mistyped.
func (p Payload) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Envelope is a single event as delivered by the push service, plus local
// receive metadata.
type Envelope struct {
	EventType  string
	Payload    Payload
	Timestamp  string
	ID         string
	ReceivedAt time.Time
}

// Kind returns the routing kind of the envelope.
func (e Envelope) Kind() Kind {
	return Kind(e.EventType)
}

// envelopeWire mirrors the server's event frame. Timestamp and id arrive as
// either strings or numbers depending on console version, so both decode via
// raw JSON.
type envelopeWire struct {
	EventType string          `json:"eventType"`
	Type      string          `json:"type"`
	Payload   Payload         `json:"payload"`
	Timestamp json.RawMessage `json:"timestamp"`
	ID        json.RawMessage `json:"id"`
}

// ParseEnvelope decodes a server event frame into an Envelope stamped with
// the local receive time.
func ParseEnvelope(data []byte, receivedAt time.Time) (Envelope, error) {
	var wire envelopeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Envelope{}, err
	}

	eventType := wire.EventType
	if eventType == "" {
		eventType = wire.Type
	}

	return Envelope{
		EventType:  eventType,
		Payload:    wire.Payload,
		Timestamp:  rawString(wire.Timestamp),
		ID:         rawString(wire.ID),
		ReceivedAt: receivedAt,
	}, nil
}

// rawString renders a raw JSON scalar as a plain string (unquoting strings,
// passing numbers through).
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}
