package nats

import (
	"time"

	"github.com/google/uuid"
)

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// Stream names.
const (
	StreamDialogues = "AFTERCARE_DIALOGUES"
	StreamEvents    = "AFTERCARE_EVENTS"
)

// Subject constants.
const (
	SubjectTurnCompleted   = "aftercare.dialogues.turn"
	SubjectInferenceFailed = "aftercare.events.inference"
)

// TurnCompleted is published after an answer has been returned to the
// patient. The dialogue persister stores it.
type TurnCompleted struct {
	TurnID      uuid.UUID `json:"turn_id"`
	PatientID   int64     `json:"patient_id"`
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// InferenceFailed is published when a generation call fails and the
// fallback responder answers instead.
type InferenceFailed struct {
	ID        uuid.UUID `json:"id"`
	Shape     string    `json:"shape"`
	Kind      string    `json:"kind"` // timeout, network, status, malformed
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}
