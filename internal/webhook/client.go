// Package webhook posts signature requests to the external e-signature
// automation webhook.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"schooldocs/internal/config"
)

var ErrURLRequired = errors.New("webhook url is required")

// maxBodyBytes caps how much of the webhook response is kept.
const maxBodyBytes = 64 << 10

// Payload is the JSON body expected by the signature automation.
type Payload struct {
	NomeResponsavel string `json:"nomeResponsavel" validate:"notblank"`
	CPFResponsavel  string `json:"cpfResponsavel" validate:"notblank"`
	WhatsApp        string `json:"whatsapp" validate:"notblank"`
	Base64          string `json:"base64" validate:"notblank,base64"`
	NomeAluno       string `json:"nomeAluno" validate:"notblank"`
}

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	Status     int
	StatusText string
	Body       string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned %d %s", e.Status, e.StatusText)
}

// Message is the user-facing explanation of the failure.
func (e *StatusError) Message() string {
	switch {
	case e.Status == http.StatusNotFound:
		return "Webhook não encontrado. Verifique se o sistema de automação está funcionando corretamente."
	case e.Status >= 500:
		return "Erro no servidor do webhook. Tente novamente em alguns minutos."
	default:
		return fmt.Sprintf("Erro %d: %s", e.Status, e.StatusText)
	}
}

// NetworkError wraps transport failures (DNS, connection, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "webhook request failed: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// Sender sends one payload and returns the raw webhook response body.
type Sender interface {
	Send(ctx context.Context, p Payload) (string, error)
}

// Client is the HTTP implementation of Sender.
type Client struct {
	url       string
	userAgent string
	http      *http.Client
	log       *slog.Logger
}

var _ Sender = (*Client)(nil)

// NewClient builds a Client with an otelhttp-instrumented transport.
func NewClient(cfg config.WebhookConfig, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrURLRequired
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}, nil
}

// URL returns the configured webhook endpoint.
func (c *Client) URL() string { return c.url }

func (c *Client) Send(ctx context.Context, p Payload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	c.log.InfoContext(ctx, "webhook_send",
		"student", p.NomeAluno,
		"guardian", p.NomeResponsavel,
		"cpf", p.CPFResponsavel,
		"whatsapp", p.WhatsApp,
		"base64_length", len(p.Base64),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "webhook_failed", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	statusText := reasonPhrase(resp)
	c.log.InfoContext(ctx, "webhook_response",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.ErrorContext(ctx, "webhook_rejected", "status", resp.StatusCode, "body", string(raw))
		return "", &StatusError{
			Status:     resp.StatusCode,
			StatusText: statusText,
			Body:       string(raw),
			URL:        c.url,
		}
	}
	return string(raw), nil
}

// reasonPhrase returns the status line text the server sent, falling back
// to the standard phrase when the server sent none.
func reasonPhrase(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
