package ws

import "encoding/json"

// Message names carried in the envelope's type field.
const (
	// client -> server
	TypeJoin         = "join"
	TypeUpdate       = "update"
	TypeRunBroadcast = "run-broadcast"

	// server -> client
	TypeState      = "state"
	TypeStateDelta = "state-delta"
	TypeRunResult  = "run-result"
)

// Envelope frames every message on the wire: a name plus a payload whose
// shape depends on the name.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Text is an optional JSON string. Decoding accepts only actual strings;
// a missing field, null, or any other JSON type leaves Valid false.
// Handlers substitute rather than reject, so decoding never errors.
type Text struct {
	Value string
	Valid bool
}

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Valid = false
		return nil
	}
	t.Value = s
	t.Valid = true
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// Ptr returns the value for store-level candidates: nil when no usable
// text was supplied.
func (t Text) Ptr() *string {
	if !t.Valid {
		return nil
	}
	v := t.Value
	return &v
}

// Inbound payloads, one per message kind.

type JoinPayload struct {
	RoomID string `json:"roomId"`
}

type UpdatePayload struct {
	RoomID   string `json:"roomId"`
	Code     Text   `json:"code"`
	Language Text   `json:"language"`
}

type RunBroadcastPayload struct {
	RoomID string `json:"roomId"`
	Output Text   `json:"output"`
}

// Outbound payloads.

type StatePayload struct {
	Code        string `json:"code"`
	Language    string `json:"language"`
	LastUpdated int64  `json:"lastUpdated"`
}

type StateDeltaPayload struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type RunResultPayload struct {
	Output string `json:"output"`
}

func encode(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
