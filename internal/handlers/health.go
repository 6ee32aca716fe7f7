package handlers

import (
	"net/http"
	"time"

	"github.com/autonotions/autonotions/db"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func HealthCheck(c *gin.Context) {
	status, code := "ok", http.StatusOK

	if err := db.Ping(); err != nil {
		zap.L().Warn("health check: database unreachable", zap.Error(err))
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"message":   "Autonotions is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
