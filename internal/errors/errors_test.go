package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServer_MapsStatusToCode(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, CodeUnauthorized},
		{http.StatusForbidden, CodeUnauthorized},
		{http.StatusNotFound, CodeNotFound},
		{http.StatusInternalServerError, CodeServer},
		{http.StatusBadRequest, CodeServer},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := Server(tt.status, "")
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, KindServer, err.Kind)
			assert.Equal(t, http.StatusText(tt.status), err.Message)
		})
	}
}

func TestNetwork_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("cart add: %w", Network(cause))

	assert.True(t, IsKind(err, KindNetwork))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, MsgNetwork, UserMessage(err))
}

func TestAuthRequired_IsValidationKind(t *testing.T) {
	err := AuthRequired("")
	assert.True(t, IsAuthRequired(err))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, MsgAuthRequired, UserMessage(err))
}

func TestAuthRequired_NamesAction(t *testing.T) {
	tests := map[string]string{
		ActionCartAdd:    MsgAuthRequired,
		ActionCartRemove: "Please login to remove items from cart",
		ActionCartUpdate: "Please login to update items in cart",
	}
	for action, want := range tests {
		assert.Equal(t, want, UserMessage(AuthRequired(action)), action)
	}
}

func TestWithDetails(t *testing.T) {
	err := Validation("quantity", "must be positive").WithDetails("value", -1)
	assert.Equal(t, "quantity", err.Details["field"])
	assert.Equal(t, -1, err.Details["value"])
	assert.Equal(t, "VALIDATION_FAILED: quantity: must be positive", err.Error())
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, MsgNetwork, UserMessage(errors.New("boom")))
	assert.Empty(t, UserMessage(nil))
}

func TestResult(t *testing.T) {
	assert.Equal(t, Result{Success: true}, FromError(nil))

	res := FromError(Server(http.StatusBadRequest, "Email already registered"))
	assert.False(t, res.Success)
	assert.Equal(t, "Email already registered", res.Error)
	assert.Equal(t, CodeServer, res.Code)

	res = Fail(errors.New("dial tcp: timeout"))
	assert.Equal(t, MsgNetwork, res.Error)
	assert.Equal(t, CodeNetwork, res.Code)
}
