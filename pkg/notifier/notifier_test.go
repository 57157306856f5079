package notifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("send: %w", &Error{Transport: "expo", Recipient: "tok", Validation: true, Err: ErrInvalidRecipient})

	var nerr *Error
	assert.True(t, errors.As(err, &nerr))
	assert.True(t, nerr.Validation)
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Contains(t, err.Error(), "expo validation error for tok")
}

func TestFunc(t *testing.T) {
	var got Message
	n := Func(func(_ context.Context, msg Message) error {
		got = msg
		return nil
	})
	assert.NoError(t, n.Send(context.Background(), Message{RecipientID: "r1"}))
	assert.Equal(t, "r1", got.RecipientID)
}
