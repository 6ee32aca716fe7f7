package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsToWorkspace(t *testing.T) {
	hub := NewHub()
	workspaceID := uuid.New()
	otherID := uuid.New()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id := workspaceID
		if r.URL.Query().Get("other") != "" {
			id = otherID
		}
		hub.Serve(id, conn)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	other, _, err := websocket.DefaultDialer.Dial(url+"?other=1", nil)
	require.NoError(t, err)
	defer other.Close()

	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "connected", event.Type)
	assert.Equal(t, workspaceID, event.WorkspaceID)

	require.NoError(t, other.ReadJSON(&event))

	assert.Eventually(t, func() bool { return hub.Count(workspaceID) == 1 && hub.Count(otherID) == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(workspaceID, "kanban")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, Event{Type: "refresh", Kind: "kanban", WorkspaceID: workspaceID}, event)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	assert.Error(t, other.ReadJSON(&event), "other workspaces receive nothing")

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Count(workspaceID) == 0 }, time.Second, 10*time.Millisecond)

	hub.CloseAll()
	assert.Zero(t, hub.Count(otherID))
}
