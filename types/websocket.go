package types

import "encoding/json"

const (
	TypeWebsocketPing  = "ping"
	TypeWebsocketPong  = "pong"
	TypeWebsocketChat  = "chat"
	TypeWebsocketError = "error"
)

// WebsocketRequest is an inbound frame. Payload is decoded per Type.
type WebsocketRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketErrorResponse struct {
	Error string `json:"error"`
}

type WebSocketChatPayload struct {
	PdfID    string `json:"pdf_id"`
	Question string `json:"question"`
}

type WebSocketChatResponse struct {
	Answer string `json:"answer"`
}
