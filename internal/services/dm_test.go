package services

import (
	"context"
	"testing"
	"time"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectMessagesAndConversations(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, "Bob", "bob@example.com")
	ws := testutil.CreateWorkspace(t, "Acme", owner, alice, bob)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	send := func(from, to models.User, content string, at time.Duration) {
		msg := models.Message{
			BaseModel:   models.BaseModel{CreatedAt: base.Add(at)},
			WorkspaceID: ws.ID,
			UserID:      from.ID,
			RecipientID: &to.ID,
			Content:     content,
		}
		require.NoError(t, db.DB.Create(&msg).Error)
	}

	send(owner, alice, "hi alice", 0)
	send(alice, owner, "hi owner", time.Minute)
	send(owner, bob, "hi bob", 2*time.Minute)
	send(alice, bob, "not for owner", 3*time.Minute)

	conversations, err := ListConversations(ctx, ws.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, bob.ID, conversations[0].User.ID)
	assert.Equal(t, "hi bob", conversations[0].LastMessage.Content)
	assert.Equal(t, alice.ID, conversations[1].User.ID)
	assert.Equal(t, "hi owner", conversations[1].LastMessage.Content)

	thread, err := ListDirectMessages(ctx, ws.ID, owner.ID, alice.ID, Page{})
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "hi alice", thread[0].Content)
	assert.Equal(t, "hi owner", thread[1].Content)
}

func TestSendDirectMessage(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	outsider := testutil.CreateUser(t, "Eve", "eve@example.com")
	ws := testutil.CreateWorkspace(t, "Acme", owner, alice)

	_, err := SendDirectMessage(ctx, ws.ID, owner, outsider.ID, "psst")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = SendDirectMessage(ctx, ws.ID, owner, owner.ID, "me")
	assert.ErrorIs(t, err, ErrInvalidInput)

	msg, err := SendDirectMessage(ctx, ws.ID, owner, alice.ID, "hello @alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, *msg.RecipientID)
	assert.Nil(t, msg.ChannelID)

	notes, err := ListNotifications(ctx, alice.ID, NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationDirectMessage, notes[0].Type)
	assert.Equal(t, "New message from Owner", notes[0].Message)
}

func TestSearchRecipients(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice Design", "alice@example.com")
	testutil.CreateUser(t, "Designer Outsider", "design@example.com")
	ws := testutil.CreateWorkspace(t, "Acme", owner, alice)

	_, err := CreateChannel(ctx, ws.ID, owner.ID, "design", "")
	require.NoError(t, err)
	_, err = CreateChannel(ctx, ws.ID, owner.ID, "random", "")
	require.NoError(t, err)

	both, err := SearchRecipients(ctx, ws.ID, "DESIGN")
	require.NoError(t, err)
	require.Len(t, both.Channels, 1)
	assert.Equal(t, "design", both.Channels[0].Name)
	require.Len(t, both.Members, 1)
	assert.Equal(t, alice.ID, both.Members[0].ID)

	channels, err := SearchRecipients(ctx, ws.ID, "#design")
	require.NoError(t, err)
	assert.Len(t, channels.Channels, 1)
	assert.Empty(t, channels.Members)

	members, err := SearchRecipients(ctx, ws.ID, "@design")
	require.NoError(t, err)
	assert.Empty(t, members.Channels)
	assert.Len(t, members.Members, 1)

	all, err := SearchRecipients(ctx, ws.ID, "#")
	require.NoError(t, err)
	assert.Len(t, all.Channels, 2)

	byEmail, err := SearchRecipients(ctx, ws.ID, "@own")
	require.NoError(t, err)
	require.Len(t, byEmail.Members, 1)
	assert.Equal(t, owner.ID, byEmail.Members[0].ID)
}

func TestSearchUsersByEmail(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	testutil.CreateUser(t, "Alice", "alice@example.com")
	testutil.CreateUser(t, "Bob", "bob@sample.org")

	users, err := SearchUsersByEmail(ctx, "EXAMPLE")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)

	users, err = SearchUsersByEmail(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = SearchUsersByEmail(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, users)
}
