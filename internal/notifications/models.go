package notifications

import "time"

// Message types pushed over the websocket
const (
	MessageTypeDecision = "verification_decision"
	MessageTypePing     = "ping"
)

// Message is the envelope pushed to connected dashboards
type Message struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// DecisionEmail is a rendered approve/reject notice
type DecisionEmail struct {
	To      string
	Subject string
	Body    string
}
