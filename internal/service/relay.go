package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"schooldocs/internal/validate"
	"schooldocs/internal/webhook"
)

// RelayErrorDetails describes the webhook response that caused a relay failure.
type RelayErrorDetails struct {
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	URL        string `json:"url"`
}

// RelayResult is the body and HTTP status the relay answers with.
type RelayResult struct {
	Status          int                `json:"-"`
	Success         bool               `json:"success"`
	Message         string             `json:"message,omitempty"`
	WebhookResponse *string            `json:"webhookResponse,omitempty"`
	Error           string             `json:"error,omitempty"`
	Details         *RelayErrorDetails `json:"details,omitempty"`
	Type            string             `json:"type,omitempty"`
}

// RelayService forwards a prepared signature payload to the webhook.
type RelayService interface {
	// Relay never returns an error; failures are encoded in the result.
	Relay(ctx context.Context, p webhook.Payload) RelayResult
}

type relayService struct {
	sender webhook.Sender
	log    *slog.Logger
}

// NewRelayService constructs a RelayService. A nil sender makes every
// relay fail with an internal error.
func NewRelayService(sender webhook.Sender, log *slog.Logger) RelayService {
	return &relayService{sender: sender, log: log}
}

func (s *relayService) Relay(ctx context.Context, p webhook.Payload) RelayResult {
	if err := validate.Struct(p); err != nil {
		return RelayValidationFailure(err)
	}
	if s.sender == nil {
		return RelayInternalFailure(ErrWebhookDisabled)
	}

	s.log.InfoContext(ctx, "relay_start", "student", p.NomeAluno, "guardian", p.NomeResponsavel)

	body, err := s.sender.Send(ctx, p)
	if err != nil {
		var se *webhook.StatusError
		if errors.As(err, &se) {
			return RelayResult{
				Status:  http.StatusBadRequest,
				Success: false,
				Error:   se.Message(),
				Details: &RelayErrorDetails{
					Status:     se.Status,
					StatusText: se.StatusText,
					URL:        se.URL,
				},
			}
		}
		s.log.ErrorContext(ctx, "relay_failed", "error", err.Error())
		return RelayInternalFailure(err)
	}

	return RelayResult{
		Status:          http.StatusOK,
		Success:         true,
		Message:         "Documento enviado com sucesso para " + p.NomeAluno,
		WebhookResponse: &body,
	}
}

// RelayInternalFailure is the result for errors that are not webhook answers,
// including malformed request bodies.
func RelayInternalFailure(err error) RelayResult {
	return RelayResult{
		Status:  http.StatusInternalServerError,
		Success: false,
		Error:   "Erro interno: " + err.Error(),
		Type:    "internal_error",
	}
}

// RelayValidationFailure is the result for a payload with missing or
// malformed fields.
func RelayValidationFailure(err error) RelayResult {
	msg := err.Error()
	if fields := validate.Fields(err); len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fields[k])
		}
		msg = strings.Join(parts, "; ")
	}
	return RelayResult{
		Status:  http.StatusBadRequest,
		Success: false,
		Error:   fmt.Sprintf("Dados inválidos: %s", msg),
		Type:    "validation_error",
	}
}
