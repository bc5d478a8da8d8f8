package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Baduit/Timer/internal/logger"
)

// Standard error messages (don't leak internal details)
const (
	ErrMsgInvalidRequest = "Invalid request"
	ErrMsgInternalError  = "Internal server error"
)

// respondWithError sends a JSON error response and logs the actual error
func respondWithError(c *gin.Context, status int, publicMsg string, err error) {
	if err != nil {
		logger.Debugf("%s: %v", publicMsg, err)
	}
	c.JSON(status, gin.H{"error": publicMsg})
}

// respondNotFound handles not found errors
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
}

// respondBadRequest handles malformed input
func respondBadRequest(c *gin.Context, err error) {
	respondWithError(c, http.StatusBadRequest, ErrMsgInvalidRequest, err)
}
