package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateWorkspaceInput struct {
	Name string
	// Teammates holds emails or user ids.
	Teammates []string
}

type WorkspaceUpdate struct {
	Name           *string
	DiscordWebhook *string
	SlackWebhook   *string
}

// WorkspaceWithRole is a workspace as seen by one of its members.
type WorkspaceWithRole struct {
	models.Workspace
	Role string `json:"role"`
}

// CreateWorkspace inserts the workspace, the owner as admin and every teammate as member.
func CreateWorkspace(ctx context.Context, owner models.User, in CreateWorkspaceInput) (models.Workspace, error) {
	workspace := models.Workspace{
		Name:    strings.TrimSpace(in.Name),
		OwnerID: owner.ID,
	}

	if workspace.Name == "" {
		return workspace, invalidf("workspace name is required")
	}

	teammates, err := resolveTeammates(ctx, owner.ID, in.Teammates)
	if err != nil {
		return workspace, err
	}

	err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&workspace).Error; err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}

		members := []models.WorkspaceMember{{
			WorkspaceID: workspace.ID,
			UserID:      owner.ID,
			Role:        models.RoleAdmin,
		}}

		recipients := make([]uuid.UUID, 0, len(teammates))
		for _, user := range teammates {
			members = append(members, models.WorkspaceMember{
				WorkspaceID: workspace.ID,
				UserID:      user.ID,
				Role:        models.RoleMember,
			})
			recipients = append(recipients, user.ID)
		}

		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("failed to add workspace members: %w", err)
		}

		message := fmt.Sprintf("%s added you to %s", owner.Name, workspace.Name)
		return notify(tx, recipients, &owner.ID, &workspace.ID, models.NotificationInvitation, message)
	})

	return workspace, err
}

// resolveTeammates looks up each entry by id or email, skipping the owner and duplicates.
func resolveTeammates(ctx context.Context, ownerID uuid.UUID, entries []string) ([]models.User, error) {
	seen := map[uuid.UUID]bool{ownerID: true}
	var users []models.User

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		var user models.User
		var err error

		if id, parseErr := uuid.Parse(entry); parseErr == nil {
			err = db.DB.WithContext(ctx).First(&user, "id = ?", id).Error
		} else {
			err = db.DB.WithContext(ctx).Where("email = ?", auth.NormalizeEmail(entry)).First(&user).Error
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidf("user not found: %s", entry)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up teammate: %w", err)
		}

		if seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		users = append(users, user)
	}

	return users, nil
}

// ListWorkspaces returns the workspaces the user belongs to, ordered by name.
func ListWorkspaces(ctx context.Context, userID uuid.UUID) ([]WorkspaceWithRole, error) {
	var memberships []models.WorkspaceMember
	if err := db.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	result := []WorkspaceWithRole{}
	if len(memberships) == 0 {
		return result, nil
	}

	roles := make(map[uuid.UUID]string, len(memberships))
	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		roles[m.WorkspaceID] = m.Role
		ids = append(ids, m.WorkspaceID)
	}

	var workspaces []models.Workspace
	if err := db.DB.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&workspaces).Error; err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	for _, ws := range workspaces {
		result = append(result, WorkspaceWithRole{Workspace: ws, Role: roles[ws.ID]})
	}

	return result, nil
}

func GetWorkspace(ctx context.Context, workspaceID uuid.UUID) (models.Workspace, error) {
	var workspace models.Workspace
	if err := db.DB.WithContext(ctx).First(&workspace, "id = ?", workspaceID).Error; err != nil {
		return workspace, lookupErr(err, "workspace")
	}
	return workspace, nil
}

func UpdateWorkspace(ctx context.Context, workspaceID uuid.UUID, in WorkspaceUpdate) (models.Workspace, error) {
	workspace, err := GetWorkspace(ctx, workspaceID)
	if err != nil {
		return workspace, err
	}

	updates := make(map[string]interface{})

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return workspace, invalidf("workspace name is required")
		}
		updates["name"] = name
	}

	for column, value := range map[string]*string{
		"discord_webhook": in.DiscordWebhook,
		"slack_webhook":   in.SlackWebhook,
	} {
		if value == nil {
			continue
		}
		url := strings.TrimSpace(*value)
		if url != "" && !strings.HasPrefix(url, "https://") {
			return workspace, invalidf("webhook URL must use https")
		}
		updates[column] = url
	}

	if len(updates) == 0 {
		return workspace, invalidf("no valid fields to update")
	}

	if err := db.DB.WithContext(ctx).Model(&workspace).Updates(updates).Error; err != nil {
		return workspace, fmt.Errorf("failed to update workspace: %w", err)
	}

	return GetWorkspace(ctx, workspaceID)
}

// DeleteWorkspace is reserved to the owner; everything inside cascades.
func DeleteWorkspace(ctx context.Context, workspaceID, userID uuid.UUID) error {
	workspace, err := GetWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}

	if workspace.OwnerID != userID {
		return forbidden("only the workspace owner can delete it")
	}

	if err := db.DB.WithContext(ctx).Delete(&workspace).Error; err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	return nil
}

func GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (models.WorkspaceMember, error) {
	var member models.WorkspaceMember

	err := db.DB.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error
	if err != nil {
		return member, lookupErr(err, "membership")
	}

	return member, nil
}

func ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	members := []models.WorkspaceMember{}

	err := db.DB.WithContext(ctx).
		Preload("User").
		Where("workspace_id = ?", workspaceID).
		Order("created_at").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

func AddMember(ctx context.Context, workspaceID uuid.UUID, inviter models.User, email, role string) (models.WorkspaceMember, error) {
	var member models.WorkspaceMember

	if role == "" {
		role = models.RoleMember
	}
	if !validRole(role) {
		return member, invalidf("invalid role %q", role)
	}

	workspace, err := GetWorkspace(ctx, workspaceID)
	if err != nil {
		return member, err
	}

	var user models.User
	err = db.DB.WithContext(ctx).Where("email = ?", auth.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return member, invalidf("user not found: %s", email)
	}
	if err != nil {
		return member, fmt.Errorf("failed to look up user: %w", err)
	}

	if _, err := GetMembership(ctx, workspaceID, user.ID); err == nil {
		return member, conflict("user is already a member of this workspace")
	} else if !errors.Is(err, ErrNotFound) {
		return member, err
	}

	member = models.WorkspaceMember{WorkspaceID: workspaceID, UserID: user.ID, Role: role}

	err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}

		message := fmt.Sprintf("%s added you to %s", inviter.Name, workspace.Name)
		return notify(tx, []uuid.UUID{user.ID}, &inviter.ID, &workspaceID, models.NotificationInvitation, message)
	})
	if err != nil {
		return member, err
	}

	member.User = &user
	return member, nil
}

// ChangeMemberRole keeps the owner an admin and the workspace with at least one admin.
func ChangeMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role string) (models.WorkspaceMember, error) {
	if !validRole(role) {
		return models.WorkspaceMember{}, invalidf("invalid role %q", role)
	}

	workspace, err := GetWorkspace(ctx, workspaceID)
	if err != nil {
		return models.WorkspaceMember{}, err
	}

	member, err := GetMembership(ctx, workspaceID, userID)
	if err != nil {
		return member, err
	}

	if member.Role == role {
		return member, nil
	}

	if role != models.RoleAdmin {
		if workspace.OwnerID == userID {
			return member, forbidden("the workspace owner must stay an admin")
		}

		var admins int64
		err := db.DB.WithContext(ctx).Model(&models.WorkspaceMember{}).
			Where("workspace_id = ? AND role = ?", workspaceID, models.RoleAdmin).
			Count(&admins).Error
		if err != nil {
			return member, fmt.Errorf("failed to count admins: %w", err)
		}
		if admins <= 1 {
			return member, conflict("a workspace needs at least one admin")
		}
	}

	if err := db.DB.WithContext(ctx).Model(&member).Update("role", role).Error; err != nil {
		return member, fmt.Errorf("failed to change role: %w", err)
	}
	member.Role = role

	return member, nil
}

// RemoveMember lets admins remove anyone but the owner, and any member leave.
func RemoveMember(ctx context.Context, workspaceID uuid.UUID, actor models.WorkspaceMember, userID uuid.UUID) error {
	if actor.UserID != userID && actor.Role != models.RoleAdmin {
		return forbidden("only admins can remove members")
	}

	workspace, err := GetWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}

	if workspace.OwnerID == userID {
		return forbidden("the workspace owner cannot be removed")
	}

	member, err := GetMembership(ctx, workspaceID, userID)
	if err != nil {
		return err
	}

	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&member).Error; err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		err := tx.Model(&models.KanbanCard{}).
			Where("assignee_id = ? AND board_id IN (?)", userID,
				tx.Model(&models.KanbanBoard{}).Select("id").Where("workspace_id = ?", workspaceID)).
			Updates(map[string]interface{}{"assignee_id": nil, "reminded_at": nil}).Error
		if err != nil {
			return fmt.Errorf("failed to unassign cards: %w", err)
		}

		return nil
	})
}

func validRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleMember
}
