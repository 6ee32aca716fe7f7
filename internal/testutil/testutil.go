// Package testutil sets up an in-memory database and common fixtures for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const JWTSecret = "test-secret"

// SetupTestDB points db.DB at a fresh in-memory sqlite database with the full schema.
// Tests using it must not run in parallel.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gin.SetMode(gin.TestMode)
	require.NoError(t, auth.InitJWTSecret(JWTSecret, time.Hour))

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	require.NoError(t, db.Open(sqlite.Open(dsn)))

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.MigrateDatabase())

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db.DB
}

func CreateUser(t *testing.T, name, email string) models.User {
	t.Helper()

	user := models.User{Name: name, Email: email}
	require.NoError(t, db.DB.Create(&user).Error)
	return user
}

// CreateWorkspace creates a workspace owned by owner (as admin) with the given extra members.
func CreateWorkspace(t *testing.T, name string, owner models.User, members ...models.User) models.Workspace {
	t.Helper()

	ws := models.Workspace{Name: name, OwnerID: owner.ID}
	require.NoError(t, db.DB.Create(&ws).Error)

	require.NoError(t, db.DB.Create(&models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      owner.ID,
		Role:        models.RoleAdmin,
	}).Error)

	for _, m := range members {
		require.NoError(t, db.DB.Create(&models.WorkspaceMember{
			WorkspaceID: ws.ID,
			UserID:      m.ID,
			Role:        models.RoleMember,
		}).Error)
	}

	return ws
}

func Token(t *testing.T, user models.User) string {
	t.Helper()

	token, _, err := auth.GenerateJWT(user.ID, user.Email)
	require.NoError(t, err)
	return token
}

// Request performs an authenticated (when user is non-nil) request against handler.
func Request(t *testing.T, handler http.Handler, method, path string, body string, user *models.User) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if user != nil {
		req.Header.Set("Authorization", "Bearer "+Token(t, *user))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func MustParseUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()

	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
