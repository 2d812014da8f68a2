package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dentalcare/aftercare/internal/api"
	"github.com/dentalcare/aftercare/internal/metrics"
	inats "github.com/dentalcare/aftercare/internal/nats"
)

// Answerer produces the assistant reply for a patient message. It never
// fails.
type Answerer interface {
	Answer(ctx context.Context, message string, patientID int64, sessionID string) string
}

// TurnPublisher hands finished turns to the asynchronous persister.
type TurnPublisher interface {
	PublishTurnCompleted(ctx context.Context, event inats.TurnCompleted) error
}

// TurnRecorder persists a turn synchronously.
type TurnRecorder interface {
	Record(ctx context.Context, t *Turn) error
}

// HistoryStore serves the read and handover endpoints.
type HistoryStore interface {
	ListBySession(ctx context.Context, sessionID string, page, pageSize int) ([]Turn, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	MarkHandover(ctx context.Context, id uuid.UUID) (*Turn, error)
	ListPendingHandover(ctx context.Context, limit int) ([]Turn, error)
}

// Handler handles dialogue HTTP endpoints.
type Handler struct {
	answerer  Answerer
	publisher TurnPublisher
	recorder  TurnRecorder
	history   HistoryStore
	validate  *validator.Validate
	now       func() time.Time
}

// NewHandler creates a dialogue handler. publisher may be nil, in which case
// turns are recorded before the response is written.
func NewHandler(answerer Answerer, publisher TurnPublisher, recorder TurnRecorder, history HistoryStore) *Handler {
	return &Handler{
		answerer:  answerer,
		publisher: publisher,
		recorder:  recorder,
		history:   history,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Create answers a patient message and records the resulting turn.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	msgType := req.MessageType
	if msgType == "" {
		msgType = DefaultMessageType
	}

	reply := h.answerer.Answer(r.Context(), req.UserMessage, req.PatientID, req.SessionID)

	turn := &Turn{
		ID:          uuid.New(),
		PatientID:   req.PatientID,
		SessionID:   req.SessionID,
		UserMessage: req.UserMessage,
		AIResponse:  reply,
		MessageType: msgType,
		CreatedAt:   h.now().UTC(),
	}
	h.record(r.Context(), turn)

	api.JSON(w, http.StatusCreated, turn)
}

// record prefers the event path and falls back to a direct write. A failed
// write is logged; the patient still gets the answer.
func (h *Handler) record(ctx context.Context, turn *Turn) {
	if h.publisher != nil {
		err := h.publisher.PublishTurnCompleted(ctx, eventFromTurn(turn))
		if err == nil {
			return
		}
		slog.Warn("publishing turn, recording directly", "error", err, "turn_id", turn.ID)
	}

	if err := h.recorder.Record(ctx, turn); err != nil {
		slog.Error("recording turn", "error", err, "turn_id", turn.ID, "session_id", turn.SessionID)
		return
	}
	metrics.TurnsRecordedTotal.WithLabelValues("sync").Inc()
}

// ListBySession returns a session's turns in chronological order.
func (h *Handler) ListBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		api.HandleError(w, api.NewBadRequestError("session ID is required"))
		return
	}

	page := 1
	pageSize := 20
	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	turns, err := h.history.ListBySession(r.Context(), sessionID, page, pageSize)
	if err != nil {
		slog.Error("listing session turns", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	total, err := h.history.CountBySession(r.Context(), sessionID)
	if err != nil {
		slog.Error("counting session turns", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONPaginated(w, http.StatusOK, turns, total, page, pageSize)
}

// Handover flags a turn for a clinician to take over.
func (h *Handler) Handover(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "dialogueID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid dialogue ID"))
		return
	}

	turn, err := h.history.MarkHandover(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrTurnNotFound) {
			api.HandleError(w, api.NewNotFoundError("dialogue not found"))
			return
		}
		slog.Error("marking handover", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	slog.Info("dialogue handed over", "turn_id", turn.ID, "session_id", turn.SessionID)
	api.JSON(w, http.StatusOK, turn)
}

// PendingHandover lists turns waiting for a clinician.
func (h *Handler) PendingHandover(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}

	turns, err := h.history.ListPendingHandover(r.Context(), limit)
	if err != nil {
		slog.Error("listing handover turns", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, turns)
}
