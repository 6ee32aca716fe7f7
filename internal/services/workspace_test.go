package services

import (
	"context"
	"strings"
	"testing"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWorkspaceAddsOwnerAndTeammates(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, "Bob", "bob@example.com")

	ws, err := CreateWorkspace(ctx, owner, CreateWorkspaceInput{
		Name:      "  Acme  ",
		Teammates: []string{strings.ToUpper(alice.Email), bob.ID.String(), owner.Email, alice.Email, ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", ws.Name)

	members, err := ListMembers(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	roles := map[string]string{}
	for _, m := range members {
		roles[m.User.Email] = m.Role
	}
	assert.Equal(t, map[string]string{
		"owner@example.com": models.RoleAdmin,
		"alice@example.com": models.RoleMember,
		"bob@example.com":   models.RoleMember,
	}, roles)

	for _, u := range []models.User{alice, bob} {
		notes, err := ListNotifications(ctx, u.ID, NotificationFilter{})
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, models.NotificationInvitation, notes[0].Type)
		assert.Equal(t, "Owner added you to Acme", notes[0].Message)
	}
}

func TestCreateWorkspaceUnknownTeammate(t *testing.T) {
	testutil.SetupTestDB(t)
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")

	_, err := CreateWorkspace(context.Background(), owner, CreateWorkspaceInput{
		Name:      "Acme",
		Teammates: []string{"ghost@example.com"},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "ghost@example.com")

	var count int64
	db.DB.Model(&models.Workspace{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateWorkspaceRequiresName(t *testing.T) {
	testutil.SetupTestDB(t)
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")

	_, err := CreateWorkspace(context.Background(), owner, CreateWorkspaceInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListWorkspacesOrderedByName(t *testing.T) {
	testutil.SetupTestDB(t)
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")

	testutil.CreateWorkspace(t, "Zeta", owner, alice)
	testutil.CreateWorkspace(t, "Alpha", alice)
	testutil.CreateWorkspace(t, "Mid", owner)

	list, err := ListWorkspaces(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, models.RoleAdmin, list[0].Role)
	assert.Equal(t, "Zeta", list[1].Name)
	assert.Equal(t, models.RoleMember, list[1].Role)
}

func TestUpdateWorkspaceWebhooks(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	ws := testutil.CreateWorkspace(t, "Acme", owner)

	insecure := "http://hooks.example.com"
	_, err := UpdateWorkspace(ctx, ws.ID, WorkspaceUpdate{SlackWebhook: &insecure})
	assert.ErrorIs(t, err, ErrInvalidInput)

	hook := "https://discord.com/api/webhooks/1/abc"
	name := "Acme Inc"
	updated, err := UpdateWorkspace(ctx, ws.ID, WorkspaceUpdate{Name: &name, DiscordWebhook: &hook})
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", updated.Name)
	assert.Equal(t, hook, updated.DiscordWebhook)
}

func TestDeleteWorkspaceOwnerOnly(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	ws := testutil.CreateWorkspace(t, "Acme", owner, alice)

	_, err := CreateChannel(ctx, ws.ID, owner.ID, "general", "")
	require.NoError(t, err)

	assert.ErrorIs(t, DeleteWorkspace(ctx, ws.ID, alice.ID), ErrForbidden)
	require.NoError(t, DeleteWorkspace(ctx, ws.ID, owner.ID))

	var channels, members int64
	db.DB.Model(&models.Channel{}).Count(&channels)
	db.DB.Model(&models.WorkspaceMember{}).Count(&members)
	assert.Zero(t, channels)
	assert.Zero(t, members)

	_, err = GetWorkspace(ctx, ws.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddMember(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	ws := testutil.CreateWorkspace(t, "Acme", owner)

	member, err := AddMember(ctx, ws.ID, owner, " Alice@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, member.UserID)
	assert.Equal(t, models.RoleMember, member.Role)

	_, err = AddMember(ctx, ws.ID, owner, alice.Email, "")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = AddMember(ctx, ws.ID, owner, "nobody@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AddMember(ctx, ws.ID, owner, alice.Email, "superuser")
	assert.ErrorIs(t, err, ErrInvalidInput)

	count, err := UnreadNotificationCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChangeMemberRole(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	ws := testutil.CreateWorkspace(t, "Acme", owner, alice)

	_, err := ChangeMemberRole(ctx, ws.ID, owner.ID, models.RoleMember)
	assert.ErrorIs(t, err, ErrForbidden)

	member, err := ChangeMemberRole(ctx, ws.ID, alice.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, member.Role)

	member, err = ChangeMemberRole(ctx, ws.ID, alice.ID, models.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)

	_, err = ChangeMemberRole(ctx, ws.ID, alice.ID, "root")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoveMember(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, "Bob", "bob@example.com")
	ws := testutil.CreateWorkspace(t, "Acme", owner, alice, bob)

	aliceMember, err := GetMembership(ctx, ws.ID, alice.ID)
	require.NoError(t, err)
	ownerMember, err := GetMembership(ctx, ws.ID, owner.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, RemoveMember(ctx, ws.ID, aliceMember, bob.ID), ErrForbidden)
	assert.ErrorIs(t, RemoveMember(ctx, ws.ID, ownerMember, owner.ID), ErrForbidden)

	require.NoError(t, RemoveMember(ctx, ws.ID, aliceMember, alice.ID))
	require.NoError(t, RemoveMember(ctx, ws.ID, ownerMember, bob.ID))

	members, err := ListMembers(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	assert.ErrorIs(t, RemoveMember(ctx, ws.ID, ownerMember, bob.ID), ErrNotFound)
}

func TestGetDashboard(t *testing.T) {
	testutil.SetupTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, "Owner", "owner@example.com")
	alice := testutil.CreateUser(t, "Alice", "alice@example.com")
	ws := testutil.CreateWorkspace(t, "Acme", owner, alice)

	_, err := CreateChannel(ctx, ws.ID, owner.ID, "general", "")
	require.NoError(t, err)

	board, err := CreateBoard(ctx, ws.ID, owner.ID, "Sprint")
	require.NoError(t, err)
	_, err = AddCard(ctx, ws.ID, board.ID, owner.ID, CardInput{Title: "One"})
	require.NoError(t, err)
	_, err = AddCard(ctx, ws.ID, board.ID, owner.ID, CardInput{Title: "Two"})
	require.NoError(t, err)

	_, err = CreateNote(ctx, ws.ID, owner.ID, NoteInput{Title: "private"})
	require.NoError(t, err)
	_, err = CreateNote(ctx, ws.ID, alice.ID, NoteInput{Title: "shared", Shared: true})
	require.NoError(t, err)
	_, err = CreateNote(ctx, ws.ID, alice.ID, NoteInput{Title: "alice only"})
	require.NoError(t, err)

	_, err = SendChannelMessage(ctx, ws.ID, mustChannel(t, ws.ID, "general").ID, alice, "hey @owner")
	require.NoError(t, err)

	d, err := GetDashboard(ctx, ws.ID, owner.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), d.Members)
	assert.Equal(t, int64(1), d.Channels)
	assert.Equal(t, int64(1), d.Boards)
	assert.Equal(t, int64(2), d.Notes)
	assert.Equal(t, int64(1), d.UnreadNotifications)

	require.Len(t, d.BoardStats, 1)
	require.Len(t, d.BoardStats[0].Columns, 4)
	assert.Equal(t, "To Do", d.BoardStats[0].Columns[0].Title)
	assert.Equal(t, int64(2), d.BoardStats[0].Columns[0].Cards)
	assert.Equal(t, int64(0), d.BoardStats[0].Columns[3].Cards)
}
