package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewAuthenticationError("bad creds"), http.StatusUnauthorized},
		{NewUnauthorizedError("no token"), http.StatusUnauthorized},
		{NewConflictError("taken"), http.StatusConflict},
		{NewNotFoundError("User", 1), http.StatusNotFound},
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewHashingError(errors.New("cost")), http.StatusInternalServerError},
		{NewInternalError(errors.New("db")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NewConflictError("taken")), http.StatusConflict},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("follow: %w", NewNotFoundError("User", "bob"))
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error: connection reset", err.Error())
}

func TestRespondWithError(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		wantDetails string
		wantBearer  bool
	}{
		{"unauthorized sets challenge", NewUnauthorizedError("Could not validate credentials"), http.StatusUnauthorized, "", true},
		{"internal hides cause", NewInternalError(errors.New("password=hunter2")), http.StatusInternalServerError, "", false},
		{"client error shows cause", &AppError{Code: CodeValidation, Message: "bad", Err: errors.New("field x")}, http.StatusBadRequest, "field x", false},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return RespondWithAppError(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.wantBearer {
				assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
			} else {
				assert.Empty(t, resp.Header.Get("WWW-Authenticate"))
			}

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Code)
			assert.Equal(t, tc.wantDetails, body.Details)
		})
	}
}
