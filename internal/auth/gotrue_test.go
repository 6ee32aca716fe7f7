package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoTrueServer(t *testing.T, userID uuid.UUID) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]interface{}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		switch {
		case r.URL.Path == "/auth/v1/signup":
			if body["email"] == "taken@example.com" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"msg":"User already registered"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "gotrue-token",
				"expires_in":   3600,
				"user":         map[string]interface{}{"id": userID.String(), "email": body["email"]},
			})
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
			if body["password"] != "Str0ng!pass" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "gotrue-token",
				"expires_in":   3600,
				"user": map[string]interface{}{
					"id":            userID.String(),
					"email":         body["email"],
					"user_metadata": map[string]string{"name": "Alice"},
				},
			})
		case r.URL.Path == "/auth/v1/logout":
			assert.Equal(t, "Bearer gotrue-token", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/auth/v1/user" && r.Method == http.MethodPut:
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	t.Cleanup(server.Close)
	return server
}

func TestGoTrueProviderSignUpStoresProfile(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	userID := uuid.New()
	server := newGoTrueServer(t, userID)

	p := auth.NewGoTrueProvider(server.URL+"/", "anon-key", server.Client())

	session, err := p.SignUp(ctx, auth.SignUpInput{Name: "Alice", Email: "Alice@Example.com", Password: "Str0ng!pass"})
	require.NoError(t, err)
	assert.Equal(t, "gotrue-token", session.AccessToken)
	assert.Equal(t, userID, session.User.ID)
	assert.Equal(t, "Alice", session.User.Name)
	assert.False(t, session.ExpiresAt.IsZero())

	var stored models.User
	require.NoError(t, db.DB.First(&stored, "id = ?", userID).Error)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.Empty(t, stored.PasswordHash)

	_, err = p.SignUp(ctx, auth.SignUpInput{Name: "Taken", Email: "taken@example.com", Password: "Str0ng!pass"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestGoTrueProviderSignIn(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	userID := uuid.New()
	server := newGoTrueServer(t, userID)

	p := auth.NewGoTrueProvider(server.URL, "anon-key", server.Client())

	session, err := p.SignIn(ctx, "alice@example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, userID, session.User.ID)
	assert.Equal(t, "Alice", session.User.Name)

	// the profile row is created once and reused afterwards
	again, err := p.SignIn(ctx, "alice@example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, session.User.CreatedAt.Unix(), again.User.CreatedAt.Unix())

	_, err = p.SignIn(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	require.NoError(t, p.SignOut(ctx, "gotrue-token"))
	require.NoError(t, p.SignOut(ctx, ""))

	user := session.User
	assert.ErrorIs(t, p.ChangePassword(ctx, "gotrue-token", &user, "weak"), auth.ErrWeakPassword)
	assert.NoError(t, p.ChangePassword(ctx, "gotrue-token", &user, "N3w!password"))
	assert.NoError(t, p.VerifyPassword(ctx, &user, "Str0ng!pass"))
}
