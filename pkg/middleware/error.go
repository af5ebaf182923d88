package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rentdesk-billing/pkg/errutil"
)

// Error renders the last handler error as the uniform response envelope.
// Domain errors keep their message and mapped status; anything else is
// reported as an internal failure without leaking the cause.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}

		var be errutil.BaseError
		if errors.As(err.Err, &be) {
			if be.Unwrap() != nil {
				zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(be.Unwrap()))
			}
			c.JSON(be.Status().HTTPStatus(), gin.H{
				"success": false,
				"message": be.Message,
				"data":    gin.H{},
			})
			return
		}

		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err.Err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Something went wrong",
			"data":    gin.H{},
		})
	}
}
