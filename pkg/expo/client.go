package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/notifier"
)

const (
	DefaultPushURL = "https://exp.host/--/api/v2/push/send"
	transportName  = "expo"
	mockMarker     = "MOCK_TOKEN"
)

// Config holds the Expo push settings.
type Config struct {
	PushURL     string
	AccessToken string
	Timeout     time.Duration
}

type pushRequest struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound"`
	Data  map[string]string `json:"data,omitempty"`
}

type pushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type pushResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Client sends push notifications through the Expo push service.
type Client struct {
	cfg    Config
	client *http.Client
	logger *logger.Logger
}

// NewClient creates an Expo push client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.PushURL == "" {
		cfg.PushURL = DefaultPushURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log,
	}
}

// IsPushToken reports whether token has the Expo push token shape.
func IsPushToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}

// Send implements notifier.Notifier.
func (c *Client) Send(ctx context.Context, msg notifier.Message) error {
	token := strings.TrimSpace(msg.RecipientID)
	if token == "" {
		return c.validationError(token, notifier.ErrInvalidRecipient)
	}

	if strings.Contains(token, mockMarker) {
		c.logger.Info("Simulated push to mock token",
			logger.StringField("recipient", token),
			logger.StringField("title", msg.Title),
			logger.StringField("body", msg.Body),
		)
		return nil
	}

	if !IsPushToken(token) {
		return c.validationError(token, notifier.ErrInvalidRecipient)
	}

	payload, err := json.Marshal(pushRequest{
		To:    token,
		Title: msg.Title,
		Body:  msg.Body,
		Sound: "default",
		Data:  msg.Data,
	})
	if err != nil {
		return c.transportError(token, fmt.Errorf("failed to marshal push payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.PushURL, bytes.NewReader(payload))
	if err != nil {
		return c.transportError(token, fmt.Errorf("failed to create push request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.transportError(token, fmt.Errorf("failed to send push request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return c.transportError(token, fmt.Errorf("failed to read push response: %w", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.transportError(token, fmt.Errorf("push service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var parsed pushResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return c.transportError(token, fmt.Errorf("failed to decode push response: %w", err))
	}
	if len(parsed.Errors) > 0 {
		return c.transportError(token, fmt.Errorf("push service error %s: %s", parsed.Errors[0].Code, parsed.Errors[0].Message))
	}

	ticket, err := decodeTicket(parsed.Data)
	if err != nil {
		return c.transportError(token, err)
	}
	if ticket.Status != "ok" {
		reason := ticket.Details.Error
		if reason == "" {
			reason = ticket.Message
		}
		return c.validationError(token, fmt.Errorf("push ticket rejected: %s", reason))
	}

	c.logger.Debug("Push accepted", logger.StringField("recipient", token), logger.StringField("ticket_id", ticket.ID))
	return nil
}

// decodeTicket accepts both the single-object and the array form of the ticket data.
func decodeTicket(raw json.RawMessage) (pushTicket, error) {
	var ticket pushTicket
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ticket, fmt.Errorf("push response has no ticket")
	}
	if trimmed[0] == '[' {
		var tickets []pushTicket
		if err := json.Unmarshal(trimmed, &tickets); err != nil {
			return ticket, fmt.Errorf("failed to decode push tickets: %w", err)
		}
		if len(tickets) == 0 {
			return ticket, fmt.Errorf("push response has no ticket")
		}
		return tickets[0], nil
	}
	if err := json.Unmarshal(trimmed, &ticket); err != nil {
		return ticket, fmt.Errorf("failed to decode push ticket: %w", err)
	}
	return ticket, nil
}

func (c *Client) validationError(token string, err error) error {
	return &notifier.Error{Transport: transportName, Recipient: token, Validation: true, Err: err}
}

func (c *Client) transportError(token string, err error) error {
	return &notifier.Error{Transport: transportName, Recipient: token, Err: err}
}
