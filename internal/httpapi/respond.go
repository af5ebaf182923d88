package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// respond writes the uniform success envelope.
func respond(c *gin.Context, message string, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// fail pushes the error onto the context for the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
