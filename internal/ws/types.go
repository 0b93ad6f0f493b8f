package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove       MessageType = "move"
	MessageTypePromote    MessageType = "promote"
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeDrawOffer  MessageType = "drawOffer"
	MessageTypeDrawAnswer MessageType = "drawAnswer"
	MessageTypeResign     MessageType = "resign"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessage wraps an already-marshalled payload.
func NewMessage(t MessageType, payload []byte) Message {
	return Message{Type: t, Payload: payload}
}

// NewErrorMessage builds an error message whose payload is the quoted
// error text.
func NewErrorMessage(text string) Message {
	payload, _ := json.Marshal(text)
	return Message{Type: MessageTypeError, Payload: payload}
}
