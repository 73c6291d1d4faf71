package errors

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportErrorIs(t *testing.T) {
	tests := []struct {
		status int
		target error
		want   bool
	}{
		{404, ErrNotFound, true},
		{401, ErrUnauthorized, true},
		{403, ErrUnauthorized, true},
		{500, ErrServer, true},
		{503, ErrServer, true},
		{400, ErrNotFound, false},
		{404, ErrServer, false},
		{0, ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.status), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &TransportError{Operation: "GET", URL: "http://r", StatusCode: tt.status})
			assert.Equal(t, tt.want, Is(err, tt.target))
		})
	}
}

func TestTransportErrorMessage(t *testing.T) {
	err := &TransportError{Operation: "fetch metadata", URL: "http://r/x", StatusCode: 404, Message: "No artifact"}
	assert.Equal(t, "fetch metadata: http://r/x returned 404: No artifact", err.Error())

	cause := New("connection refused")
	err = &TransportError{Operation: "fetch metadata", URL: "http://r/x", Err: cause}
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestWrapIO(t *testing.T) {
	assert.Nil(t, WrapIO("reading", "x", nil))

	err := WrapIO("reading", "a.lock", fs.ErrNotExist)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var ioErr *IOError
	assert.True(t, As(err, &ioErr))
	assert.Equal(t, "a.lock", ioErr.Path)
}

func TestParseErrorIsInvalidInput(t *testing.T) {
	err := WrapParse("JSON", "a.lock", New("unexpected EOF"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "parsing JSON a.lock: unexpected EOF", err.Error())
}

func TestAuthAndPlanErrors(t *testing.T) {
	assert.True(t, IsUnauthorized(NewAuthError("oidc", "token expired")))
	assert.ErrorIs(t, &PlanError{Direction: "pull", Path: "a", Field: "version"}, ErrIncompletePlan)
	assert.Equal(t, "pull a: version is not set", (&PlanError{Direction: "pull", Path: "a", Field: "version"}).Error())
}

func TestSetupErrorUnwrap(t *testing.T) {
	cause := New("boom")
	err := NewSetupError("context", "cannot read context file", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "context: cannot read context file: boom", err.Error())
}
