package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"handyconnect-server/apperror"
	"handyconnect-server/logger"
)

const requestIDKey = "request_id"

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Error writes {"msg", "kind"} for err and aborts the chain. Internal causes
// are logged, never returned.
func Error(c *gin.Context, err error) {
	appErr := apperror.FromError(err)

	fields := []zap.Field{
		zap.String("kind", string(appErr.Kind)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(requestIDKey)),
	}
	if appErr.Internal != nil {
		fields = append(fields, zap.Error(appErr.Internal))
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("❌ "+appErr.Message, fields...)
	} else {
		logger.Debug(appErr.Message, fields...)
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"msg":  appErr.Message,
		"kind": appErr.Kind,
	})
}
