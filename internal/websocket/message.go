package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeDocumentUpdated           MessageType = "document_updated"
	TypeDocumentChangedExternally MessageType = "document_changed_externally"
	TypePing                      MessageType = "ping"
	TypePong                      MessageType = "pong"
	TypeError                     MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// DocumentUpdatedPayload announces a new authoritative document without
// shipping it; subscribers pull it with GET /sync.
type DocumentUpdatedPayload struct {
	UpdatedAt int64  `json:"updatedAt"`
	Richness  int    `json:"richness"`
	DeviceID  string `json:"deviceId,omitempty"`
	Digest    string `json:"digest"`
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
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
