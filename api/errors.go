package api

import (
	"errors"
	"net/http"

	"medialib/content-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortWithError translates service errors into client responses.
// Validation problems become 400s, misses become 404s and everything
// else is hidden behind a generic 500 and logged.
func abortWithError(c *gin.Context, err error, logMsg string) {
	requestID := c.MustGet("requestID").(string)

	switch {
	case errors.Is(err, service.ErrContentNotFound),
		errors.Is(err, service.ErrTagNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
	case errors.Is(err, service.ErrTitleMissing),
		errors.Is(err, service.ErrTitleTooLong),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrTagNameTooLong):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error(logMsg, zap.Error(err))
	}
}
