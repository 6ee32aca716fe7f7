package services

import (
	"context"
	"testing"
	"time"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createNotification(t *testing.T, recipient uuid.UUID, message string, at time.Time, read bool) models.Notification {
	t.Helper()

	n := models.Notification{
		BaseModel:   models.BaseModel{CreatedAt: at},
		RecipientID: recipient,
		Type:        models.NotificationMention,
		Message:     message,
	}
	require.NoError(t, db.DB.Create(&n).Error)

	if read {
		require.NoError(t, db.DB.Model(&n).Update("is_read", true).Error)
	}
	return n
}

func TestListNotificationsNewestFirst(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, "Bob", "bob@example.com")

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	createNotification(t, alice.ID, "first", base, true)
	createNotification(t, alice.ID, "second", base.Add(time.Minute), false)
	createNotification(t, alice.ID, "third", base.Add(2*time.Minute), false)
	createNotification(t, bob.ID, "bob's", base, false)

	all, err := ListNotifications(ctx, alice.ID, NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Message)
	assert.Equal(t, "first", all[2].Message)

	unread, err := ListNotifications(ctx, alice.ID, NotificationFilter{UnreadOnly: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "third", unread[0].Message)
}

func TestMarkNotificationsRead(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, "Bob", "bob@example.com")

	now := time.Now()
	one := createNotification(t, alice.ID, "one", now, false)
	createNotification(t, alice.ID, "two", now, false)
	bobs := createNotification(t, bob.ID, "bob's", now, false)

	_, err := MarkNotificationRead(ctx, alice.ID, bobs.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	marked, err := MarkNotificationRead(ctx, alice.ID, one.ID)
	require.NoError(t, err)
	assert.True(t, marked.IsRead)

	changed, err := MarkAllNotificationsRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	count, err := UnreadNotificationCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = UnreadNotificationCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteReadNotificationsBefore(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")

	now := time.Now().UTC()
	createNotification(t, alice.ID, "old read", now.Add(-48*time.Hour), true)
	createNotification(t, alice.ID, "old unread", now.Add(-48*time.Hour), false)
	createNotification(t, alice.ID, "new read", now, true)

	deleted, err := DeleteReadNotificationsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rest, err := ListNotifications(ctx, alice.ID, NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}
