package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestToDomainError(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}

	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", NewForbidden("no"), "FORBIDDEN", http.StatusForbidden},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewGone("expired")), "GONE", http.StatusGone},
		{"fiber error", fiber.NewError(http.StatusBadRequest, "invalid payload"), "VALIDATION_FAILED", http.StatusBadRequest},
		{"fiber body limit", fiber.ErrRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge},
		{"missing document", mongo.ErrNoDocuments, "NOT_FOUND", http.StatusNotFound},
		{"duplicate key", dup, "CONFLICT", http.StatusConflict},
		{"anything else", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.HTTPStatus)
		})
	}
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestInternalErrorHidesCause(t *testing.T) {
	err := ToDomainError(errors.New("dial tcp 10.0.0.1:27017: refused"))
	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorContains(t, err, "refused")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(mongo.ErrNoDocuments))
	assert.True(t, IsNotFound(NewNotFound("inquiry", nil)))
	assert.False(t, IsNotFound(NewConflict("taken", nil)))
	assert.False(t, IsNotFound(nil))
}

func TestNewInvalidCredentials(t *testing.T) {
	err := ToDomainError(NewInvalidCredentials())
	assert.Equal(t, "Invalid credentials", err.Message)
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus)
}
