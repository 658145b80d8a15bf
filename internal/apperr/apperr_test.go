package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	assert.True(t, IsConflict(Conflict("storage.CreateUser", "email")))
	assert.True(t, IsNotFound(NotFound("storage.GetExpense", "expense")))
	assert.True(t, IsValidation(Validationf("handlers.Create", "bad %s", "amount")))
	assert.False(t, IsNotFound(Validation("op", "msg")))
	assert.False(t, IsConflict(errors.New("plain")))
}

func TestInfrastructureKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Infrastructure("storage.Ping", cause)

	assert.ErrorIs(t, err, ErrInfrastructure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage.Ping: infrastructure: connection refused", err.Error())
	assert.Empty(t, Message(err))

	assert.NoError(t, Infrastructure("storage.Ping", nil))
}

func TestMessageThroughWrapping(t *testing.T) {
	err := fmt.Errorf("register: %w", Validation("auth.Register", "email, username and password are required"))

	assert.True(t, IsValidation(err))
	assert.Equal(t, "email, username and password are required", Message(err))
	assert.Empty(t, Message(errors.New("plain")))
}
