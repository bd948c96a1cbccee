package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeSubscribe        MessageType = "subscribe"
	TypeUnsubscribe      MessageType = "unsubscribe"
	TypeSubscribed       MessageType = "subscribed"
	TypeObjectiveChanged MessageType = "objective_changed"
	TypeError            MessageType = "error"
	TypePing             MessageType = "ping"
	TypePong             MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload names the subject whose objectives a client watches.
// Unsubscribe uses the same payload.
type SubscribePayload struct {
	SubjectID string `json:"subject_id"`
}

type SubscribedPayload struct {
	SubjectID string   `json:"subject_id"`
	Watching  []string `json:"watching"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
