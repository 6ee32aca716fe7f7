package handlers

import (
	"net/http"

	"github.com/autonotions/autonotions/internal/realtime"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range options.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

// WebSocket subscribes the caller to refresh hints for the workspace.
func WebSocket(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	realtime.Default.Serve(member.WorkspaceID, conn)
}
