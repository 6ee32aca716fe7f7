package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func ParseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param(name))

	if err != nil {
		return uuid.Nil, fmt.Errorf("Invalid %s", name)
	}

	return id, nil
}

// QueryInt returns def when the parameter is absent.
func QueryInt(ctx *gin.Context, name string, def int) (int, error) {
	raw := ctx.Query(name)

	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)

	if err != nil || v < 0 {
		return 0, fmt.Errorf("Invalid %s", name)
	}

	return v, nil
}

func QueryTime(ctx *gin.Context, name string) (*time.Time, error) {
	raw := ctx.Query(name)

	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)

	if err != nil {
		return nil, fmt.Errorf("Invalid %s, expected RFC3339", name)
	}

	return &t, nil
}
