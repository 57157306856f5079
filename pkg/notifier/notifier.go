package notifier

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidRecipient is returned when a recipient token is rejected before sending.
var ErrInvalidRecipient = errors.New("invalid recipient")

// Message is a single push notification.
type Message struct {
	RecipientID string
	Title       string
	Body        string
	// Data is passed to the transport unmodified.
	Data map[string]string
}

// Notifier delivers a message to one recipient.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Error is returned by transports when a message was not accepted.
type Error struct {
	Transport string
	Recipient string
	// Validation is true when the transport rejected the message or recipient,
	// as opposed to failing to reach the transport.
	Validation bool
	Err        error
}

func (e *Error) Error() string {
	kind := "transport"
	if e.Validation {
		kind = "validation"
	}
	return fmt.Sprintf("%s %s error for %s: %v", e.Transport, kind, e.Recipient, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Func adapts a function into a Notifier.
type Func func(ctx context.Context, msg Message) error

func (f Func) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
