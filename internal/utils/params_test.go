package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest("GET", target, nil)
	return ctx
}

func TestParseUUIDParam(t *testing.T) {
	ctx := newContext("/")
	id := uuid.New()
	ctx.Params = gin.Params{{Key: "card_id", Value: id.String()}, {Key: "bad", Value: "42"}}

	got, err := ParseUUIDParam(ctx, "card_id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(ctx, "bad")
	assert.EqualError(t, err, "Invalid bad")
}

func TestQueryHelpers(t *testing.T) {
	ctx := newContext("/?limit=20&neg=-1&before=2024-03-01T10:00:00Z&when=yesterday")

	limit, err := QueryInt(ctx, "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	def, err := QueryInt(ctx, "missing", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, def)

	_, err = QueryInt(ctx, "neg", 50)
	assert.Error(t, err)

	before, err := QueryTime(ctx, "before")
	require.NoError(t, err)
	assert.Equal(t, 2024, before.Year())

	_, err = QueryTime(ctx, "when")
	assert.Error(t, err)

	none, err := QueryTime(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}
