package websocket

import (
	"encoding/json"
	"time"

	"github.com/jgirmay/privacy-tower/pkg/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Client to server
	MsgTypeClick   MessageType = "click"
	MsgTypeAnswer  MessageType = "answer"
	MsgTypeRoll    MessageType = "roll"
	MsgTypeRebuild MessageType = "rebuild"
	MsgTypeReset   MessageType = "reset"
	MsgTypeState   MessageType = "state"
	MsgTypePing    MessageType = "ping"

	// Server to client
	MsgTypeRevealed MessageType = "revealed"
	MsgTypeAnswered MessageType = "answered"
	MsgTypeRolled   MessageType = "rolled"
	MsgTypeEvent    MessageType = "event"
	MsgTypeError    MessageType = "error"
	MsgTypePong     MessageType = "pong"
)

// Request is a message sent by a client. ID is echoed on the reply.
type Request struct {
	Type    MessageType     `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is sent to clients, either as a reply or a pushed event
type Message struct {
	Type      MessageType `json:"type"`
	ID        string      `json:"id,omitempty"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// BlockPayload targets a block
type BlockPayload struct {
	BlockID string `json:"block_id"`
}

// AnswerPayload answers the quiz of a revealed block
type AnswerPayload struct {
	BlockID        string `json:"block_id"`
	SelectedIndex  *int   `json:"selected_index"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

// RollPayload is the reply to a roll
type RollPayload struct {
	Roll             models.DiceRoll    `json:"roll"`
	AccessibleBlocks []models.BlockView `json:"accessible_blocks"`
	SuggestedBlocks  []models.BlockView `json:"suggested_blocks"`
}

// ErrorPayload describes a rejected request
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
