package router_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/config"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/router"
	"github.com/autonotions/autonotions/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	r     *gin.Engine
	owner models.User
	alice models.User
	ws    models.Workspace
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	testutil.SetupTestDB(t)

	f := fixture{r: router.NewRouter(&config.Config{LoginRateLimit: 100})}
	f.owner = testutil.CreateUser(t, "Owner", "owner@example.com")
	f.alice = testutil.CreateUser(t, "Alice", "alice@example.com")
	f.ws = testutil.CreateWorkspace(t, "Acme", f.owner, f.alice)
	return f
}

func (f fixture) path(format string, args ...interface{}) string {
	return fmt.Sprintf("/api/workspaces/%s", f.ws.ID) + fmt.Sprintf(format, args...)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, body string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), v))
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rec := testutil.Request(t, f.r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	f := newFixture(t)

	rec := testutil.Request(t, f.r, http.MethodGet, "/api/workspaces", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = serve(f.r, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNonMemberIsDenied(t *testing.T) {
	f := newFixture(t)
	mallory := testutil.CreateUser(t, "Mallory", "mallory@example.com")

	rec := testutil.Request(t, f.r, http.MethodGet, f.path("/channels"), "", &mallory)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodGet, "/api/workspaces/not-a-uuid/channels", "", &mallory)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminOnlyRoutes(t *testing.T) {
	f := newFixture(t)
	bob := testutil.CreateUser(t, "Bob", "bob@example.com")

	rec := testutil.Request(t, f.r, http.MethodPost, f.path("/members"), `{"email":"bob@example.com"}`, &f.alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodPost, f.path("/members"), `{"email":"bob@example.com"}`, &f.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = testutil.Request(t, f.r, http.MethodPost, f.path("/members"), `{"email":"bob@example.com"}`, &f.owner)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodGet, f.path("/members"), "", &bob)
	require.Equal(t, http.StatusOK, rec.Code)

	var members []models.WorkspaceMember
	decode(t, rec.Body.String(), &members)
	assert.Len(t, members, 3)
}

func TestSignUpLoginAndMe(t *testing.T) {
	f := newFixture(t)

	rec := testutil.Request(t, f.r, http.MethodPost, "/api/auth/signup", `{"name":"Carol","email":"carol@example.com","password":"weak"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password needs")

	rec = testutil.Request(t, f.r, http.MethodPost, "/api/auth/signup", `{"name":"Carol","email":"carol@example.com","password":"Str0ng!pass"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = testutil.Request(t, f.r, http.MethodPost, "/api/auth/signup", `{"name":"Carol","email":"carol@example.com","password":"Str0ng!pass"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodPost, "/api/auth/login", `{"email":"carol@example.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodPost, "/api/auth/signin", `{"email":"carol@example.com","password":"Str0ng!pass"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	me := serve(f.r, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "carol@example.com")
}

func TestLoginIsRateLimited(t *testing.T) {
	testutil.SetupTestDB(t)
	r := router.NewRouter(&config.Config{LoginRateLimit: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := testutil.Request(t, r, http.MethodPost, "/api/auth/login", `{"email":"x@example.com","password":"nope"}`, nil)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestChannelMessagesWithMentions(t *testing.T) {
	f := newFixture(t)

	rec := testutil.Request(t, f.r, http.MethodPost, f.path("/channels"), `{"name":"#General Chat"}`, &f.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var channel models.Channel
	decode(t, rec.Body.String(), &channel)
	assert.Equal(t, "general-chat", channel.Name)

	rec = testutil.Request(t, f.r, http.MethodPost, f.path("/channels"), `{"name":"general chat"}`, &f.alice)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodPost, f.path("/channels/%s/messages", channel.ID), `{"content":"ping @alice, please review"}`, &f.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sent struct {
		ID       string   `json:"id"`
		Mentions []string `json:"mentions"`
	}
	decode(t, rec.Body.String(), &sent)
	assert.Equal(t, []string{"alice"}, sent.Mentions)

	rec = testutil.Request(t, f.r, http.MethodGet, f.path("/channels/%s/messages?limit=10", channel.ID), "", &f.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "please review")

	rec = testutil.Request(t, f.r, http.MethodGet, f.path("/channels/%s/messages?before=yesterday", channel.ID), "", &f.alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodGet, "/api/notifications?unread=true", "", &f.alice)
	require.Equal(t, http.StatusOK, rec.Code)

	var inbox struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int64                 `json:"unread"`
	}
	decode(t, rec.Body.String(), &inbox)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, models.NotificationMention, inbox.Notifications[0].Type)
	assert.EqualValues(t, 1, inbox.Unread)

	rec = testutil.Request(t, f.r, http.MethodPatch, f.path("/messages/%s", sent.ID), `{"content":"edited"}`, &f.alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodDelete, f.path("/messages/%s", sent.ID), "", &f.owner)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodPost, "/api/notifications/read", "", &f.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":1}`, rec.Body.String())
}

func TestDirectMessages(t *testing.T) {
	f := newFixture(t)

	rec := testutil.Request(t, f.r, http.MethodPost, f.path("/dms/%s", f.alice.ID), `{"content":"hello"}`, &f.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = testutil.Request(t, f.r, http.MethodPost, f.path("/dms/%s", f.owner.ID), `{"content":"me"}`, &f.owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodGet, f.path("/dms"), "", &f.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")

	rec = testutil.Request(t, f.r, http.MethodGet, f.path("/recipients?q=@ali"), "", &f.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")
}

func TestKanbanMoveThroughAPI(t *testing.T) {
	f := newFixture(t)

	rec := testutil.Request(t, f.r, http.MethodPost, f.path("/boards"), `{"title":"Sprint"}`, &f.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var board models.KanbanBoard
	decode(t, rec.Body.String(), &board)
	require.Len(t, board.Columns, 4)
	todo, done := board.Columns[0], board.Columns[3]

	rec = testutil.Request(t, f.r, http.MethodPost, f.path("/boards/%s/cards", board.ID), `{"title":"  Write docs  ","priority":"urgent"}`, &f.owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodPost, f.path("/boards/%s/cards", board.ID), `{"title":"  Write docs  "}`, &f.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var card models.KanbanCard
	decode(t, rec.Body.String(), &card)
	assert.Equal(t, "Write docs", card.Title)
	assert.Equal(t, todo.ID, card.ColumnID)

	rec = testutil.Request(t, f.r, http.MethodPost, f.path("/cards/%s/move", card.ID), fmt.Sprintf(`{"column_id":%q,"position":9}`, done.ID), &f.alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	decode(t, rec.Body.String(), &card)
	assert.Equal(t, done.ID, card.ColumnID)
	assert.Equal(t, 0, card.Position)

	rec = testutil.Request(t, f.r, http.MethodDelete, f.path("/columns/%s", done.ID), "", &f.owner)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodGet, f.path("/dashboard"), "", &f.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"boards":1`)
}

func TestNotesAndPreview(t *testing.T) {
	f := newFixture(t)

	rec := testutil.Request(t, f.r, http.MethodPost, f.path("/notes"), `{"title":"Plan","content":"~~old~~ <script>x()</script>"}`, &f.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var note models.Note
	decode(t, rec.Body.String(), &note)

	rec = testutil.Request(t, f.r, http.MethodGet, f.path("/notes/%s", note.ID), "", &f.alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodGet, f.path("/notes/%s/preview", note.ID), "", &f.owner)
	require.Equal(t, http.StatusOK, rec.Code)

	var preview struct {
		HTML string `json:"html"`
	}
	decode(t, rec.Body.String(), &preview)
	assert.Contains(t, preview.HTML, "<del>old</del>")
	assert.NotContains(t, preview.HTML, "<script>")

	rec = testutil.Request(t, f.r, http.MethodPost, "/api/notes/preview", `{"content":"| a |\n|---|\n| b |"}`, &f.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec.Body.String(), &preview)
	assert.Contains(t, preview.HTML, "<table>")
}

func TestWorkspaceLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := testutil.Request(t, f.r, http.MethodPost, "/api/workspaces", `{"name":"Beta","teammates":["ghost@example.com"]}`, &f.alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodPost, "/api/workspaces", `{"name":"Beta","teammates":["owner@example.com"]}`, &f.alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = testutil.Request(t, f.r, http.MethodGet, "/api/workspaces", "", &f.owner)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	decode(t, rec.Body.String(), &list)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme", list[0].Name)
	assert.Equal(t, models.RoleAdmin, list[0].Role)
	assert.Equal(t, models.RoleMember, list[1].Role)

	rec = testutil.Request(t, f.r, http.MethodDelete, f.path(""), "", &f.alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.Request(t, f.r, http.MethodDelete, f.path(""), "", &f.owner)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.WorkspaceMember{}).Where("workspace_id = ?", f.ws.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	testutil.Request(t, f.r, http.MethodGet, "/api/health", "", nil)

	rec := testutil.Request(t, f.r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "autonotions_http_requests_total"))
	assert.True(t, strings.Contains(rec.Body.String(), `route="/api/health"`))
}
