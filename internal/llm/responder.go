package llm

import (
	"context"
	"strings"

	"github.com/dreamstate/guest-assistant/internal/observability"
)

const responderPrompt = `You are the friendly guest assistant for Dream State short-term rentals.
Reply briefly and warmly. You do not know any property details yourself; never
invent Wi-Fi passwords, door codes, addresses or policies. If the guest seems to
need property information, ask them to name the property (unit number or listing
title) and what they need.`

// FallbackReply is used when the model returns nothing.
const FallbackReply = "Hi! I'm the Dream State guest assistant. Tell me which property you're staying at and what you need, and I'll look it up."

// Responder answers greetings and general chat that need no dataset lookup.
type Responder struct {
	completer Completer
	model     string
	logger    *observability.Logger
}

// NewResponder creates a responder. model may be empty to use the client's default.
func NewResponder(completer Completer, model string, logger *observability.Logger) *Responder {
	return &Responder{
		completer: completer,
		model:     model,
		logger:    logger.WithComponent("general_responder"),
	}
}

// Reply generates a conversational answer to message.
func (r *Responder) Reply(ctx context.Context, message string) (string, error) {
	content, err := r.completer.Complete(ctx, CompletionRequest{
		System: responderPrompt,
		User:   message,
		Model:  r.model,
	})
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(content)
	if reply == "" {
		r.logger.Warn().Msg("Empty general reply, using fallback")
		return FallbackReply, nil
	}
	return reply, nil
}
