package middleware

import (
	"context"

	"github.com/flexprice/posbilling/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// UserIDMiddleware records the operator at the till. Bills carry it as
// created_by / updated_by.
func UserIDMiddleware(c *gin.Context) {
	userID := c.GetHeader(types.HeaderUserID)
	if userID == "" {
		userID = types.DefaultUserID
	}

	ctx := context.WithValue(c.Request.Context(), types.CtxUserID, userID)
	c.Request = c.Request.WithContext(ctx)

	c.Next()
}
