package server

import (
	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"error": message,
	})
}

// writeDomainError maps a domain error onto its HTTP status.
func writeDomainError(c *gin.Context, err error) {
	writeError(c, statusForError(err), err.Error())
}
