package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// respondError maps service and auth errors to a status and a user-facing message.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrConflict), errors.Is(err, auth.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		_ = ctx.Error(err)
		zap.L().Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("route", ctx.FullPath()),
			zap.Error(err),
		)
		ctx.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		ctx.JSON(status, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(status, gin.H{"error": err.Error()})
}

// respondBindError explains which request fields failed validation.
func respondBindError(ctx *gin.Context, err error) {
	var verrs validator.ValidationErrors

	if !errors.As(err, &verrs) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}

	ctx.JSON(http.StatusBadRequest, gin.H{"error": strings.Join(msgs, "; ")})
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email address"
	case "password":
		value, _ := fe.Value().(string)
		missing := auth.MissingPasswordRequirements(value)
		return "password needs: " + strings.Join(missing, ", ")
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	}

	return fmt.Sprintf("%s is invalid", field)
}

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags to gin's validator and
// reports fields by their JSON names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})

		if err := v.RegisterValidation("password", auth.ValidatePasswordField); err != nil {
			zap.L().Error("failed to register password validator", zap.Error(err))
		}
	})
}
