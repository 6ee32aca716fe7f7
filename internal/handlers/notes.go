package handlers

import (
	"net/http"

	"github.com/autonotions/autonotions/internal/realtime"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/autonotions/autonotions/internal/utils"
	"github.com/gin-gonic/gin"
)

type CreateNoteRequest struct {
	Title   string `json:"title" binding:"max=200"`
	Content string `json:"content"`
	Shared  bool   `json:"shared"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=200"`
	Content *string `json:"content"`
	Shared  *bool   `json:"shared"`
}

type PreviewRequest struct {
	Content string `json:"content"`
}

func ListNotes(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	notes, err := services.ListNotes(ctx.Request.Context(), member.WorkspaceID, member.UserID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, notes)
}

func CreateNote(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	var body CreateNoteRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	note, err := services.CreateNote(ctx.Request.Context(), member.WorkspaceID, member.UserID, services.NoteInput{
		Title:   body.Title,
		Content: body.Content,
		Shared:  body.Shared,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	if note.Shared {
		realtime.Broadcast(member.WorkspaceID, types.RefreshNotes)
	}

	ctx.JSON(http.StatusCreated, note)
}

func GetNote(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	noteID, err := utils.ParseUUIDParam(ctx, "note_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note, err := services.GetNote(ctx.Request.Context(), member.WorkspaceID, member.UserID, noteID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, note)
}

func UpdateNote(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	noteID, err := utils.ParseUUIDParam(ctx, "note_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateNoteRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	note, err := services.UpdateNote(ctx.Request.Context(), member.WorkspaceID, member.UserID, noteID, services.NoteUpdate{
		Title:   body.Title,
		Content: body.Content,
		Shared:  body.Shared,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshNotes)

	ctx.JSON(http.StatusOK, note)
}

func DeleteNote(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	noteID, err := utils.ParseUUIDParam(ctx, "note_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.DeleteNote(ctx.Request.Context(), member.WorkspaceID, member.UserID, noteID); err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshNotes)

	ctx.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

// PreviewMarkdown renders unsaved note content.
func PreviewMarkdown(ctx *gin.Context) {
	var body PreviewRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	html, err := services.RenderMarkdown(body.Content)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"html": html})
}

func RenderNote(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	noteID, err := utils.ParseUUIDParam(ctx, "note_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note, err := services.GetNote(ctx.Request.Context(), member.WorkspaceID, member.UserID, noteID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	html, err := services.RenderMarkdown(note.Content)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"html": html})
}
