package http

import (
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every REST response.
type APIResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: formatTime(time.Now()),
	})
}

// fail writes an error envelope. detail defaults to message.
func fail(c *gin.Context, status int, message, detail string) {
	if detail == "" {
		detail = message
	}
	c.AbortWithStatusJSON(status, APIResponse{
		Success:   false,
		Message:   message,
		Error:     detail,
		Timestamp: formatTime(time.Now()),
	})
}
