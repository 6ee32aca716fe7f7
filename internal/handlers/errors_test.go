package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err    error
		status int
		body   string
	}{
		{&services.Error{Kind: services.ErrNotFound, Message: "board not found"}, http.StatusNotFound, `{"error":"board not found"}`},
		{&services.Error{Kind: services.ErrForbidden, Message: "nope"}, http.StatusForbidden, `{"error":"nope"}`},
		{&services.Error{Kind: services.ErrConflict, Message: "taken"}, http.StatusConflict, `{"error":"taken"}`},
		{fmt.Errorf("sign up: %w", auth.ErrEmailTaken), http.StatusConflict, ""},
		{auth.ErrInvalidCredentials, http.StatusBadRequest, ""},
		{errors.New("connection reset"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(rec)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(ctx, tt.err)

		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		if tt.body != "" {
			assert.JSONEq(t, tt.body, rec.Body.String())
		}
	}
}

func TestCheckOrigin(t *testing.T) {
	previous := options
	defer func() { options = previous }()

	Configure(Options{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodGet, "/api/ws/x", nil)
	assert.True(t, checkOrigin(req))

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, checkOrigin(req))
}
