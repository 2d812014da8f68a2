package dialogue

import (
	"time"

	"github.com/google/uuid"
)

const DefaultMessageType = "consultation"

// Turn is one patient question and the assistant's answer.
type Turn struct {
	ID          uuid.UUID `json:"id"`
	PatientID   int64     `json:"patient_id"`
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	MessageType string    `json:"message_type"`
	IsHandover  bool      `json:"is_handover"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateTurnRequest is the body of POST /api/v1/dialogues.
type CreateTurnRequest struct {
	PatientID   int64  `json:"patient_id" validate:"required,gt=0"`
	SessionID   string `json:"session_id" validate:"required,max=100"`
	UserMessage string `json:"user_message" validate:"required,max=2000"`
	MessageType string `json:"message_type" validate:"omitempty,max=32"`
}
