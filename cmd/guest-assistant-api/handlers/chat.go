// Package handlers provides HTTP handlers for the guest assistant API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/dreamstate/guest-assistant/internal/assistant"
	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

// Answerer produces a reply for a guest message.
type Answerer interface {
	Answer(ctx context.Context, message string) (*assistant.Reply, error)
}

// ChatHandler serves the guest chat endpoint.
// CORS and preflight requests are handled by the router's middleware.
type ChatHandler struct {
	logger *observability.Logger
	engine Answerer
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(logger *observability.Logger, engine Answerer) *ChatHandler {
	return &ChatHandler{
		logger: logger.WithComponent("chat_handler"),
		engine: engine,
	}
}

// ChatRequestDTO is the chat request body. Text is accepted as an alias for Message.
type ChatRequestDTO struct {
	Message string `json:"message"`
	Text    string `json:"text"`
}

// ChatResponseDTO is the chat response body. Absent hints serialize as null.
type ChatResponseDTO struct {
	Reply             string  `json:"reply"`
	Intent            string  `json:"intent"`
	PropertyName      *string `json:"propertyName"`
	InformationToFind *string `json:"informationToFind"`
	FieldType         *string `json:"fieldType"`
	DatasetIntentType *string `json:"datasetIntentType"`
	DatasetOwnerName  *string `json:"datasetOwnerName"`
	InputMessage      string  `json:"inputMessage"`
	RequestID         string  `json:"requestId"`
}

// ServeHTTP handles /api/chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed. Use POST.", "")
		return
	}

	message, err := decodeChatRequest(r)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, de.Message, "")
			return
		}
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}

	ctx := r.Context()
	requestID := observability.TraceIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = observability.ContextWithTraceID(ctx, requestID)
	}

	reply, err := h.engine.Answer(ctx, message)
	if err != nil {
		status := http.StatusInternalServerError
		if domain.IsUpstream(err) {
			status = http.StatusBadGateway
		}
		h.logger.WithContext(ctx).Error().Err(err).Int("status", status).Msg("Chat request failed")
		h.writeError(w, status, "Internal server error", err.Error())
		return
	}

	q := reply.Query
	h.writeJSON(w, http.StatusOK, ChatResponseDTO{
		Reply:             reply.Text,
		Intent:            string(q.Intent),
		PropertyName:      q.PropertyName,
		InformationToFind: q.InformationToFind,
		FieldType:         q.FieldType,
		DatasetIntentType: q.DatasetIntentType,
		DatasetOwnerName:  q.DatasetOwnerName,
		InputMessage:      q.InputMessage,
		RequestID:         requestID,
	})
}

// decodeChatRequest returns the guest message from the body. Text is used
// when message is empty; an empty body counts as a missing message.
func decodeChatRequest(r *http.Request) (string, error) {
	var req ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", domain.ValidationError("Invalid JSON body", err)
	}

	message := req.Message
	if message == "" {
		message = req.Text
	}
	if message == "" {
		return "", domain.ValidationError("Missing 'message' in request body", nil)
	}
	return message, nil
}

func (h *ChatHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func (h *ChatHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	h.writeJSON(w, status, resp)
}
