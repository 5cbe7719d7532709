// Package api holds the response envelope shared by every HTTP handler.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    []string `json:"message"`
	Timestamp  string   `json:"timestamp"`
	Path       string   `json:"path"`
}

func Error(c *gin.Context, status int, messages ...string) {
	if len(messages) == 0 {
		messages = []string{"Unexpected error occurred"}
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		StatusCode: status,
		Message:    messages,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.Request.URL.Path,
	})
}
