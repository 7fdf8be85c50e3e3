package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MediaServe streams a stored file for viewing on the website or in a
// browser directly
func (a *API) MediaServe(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	rel := strings.TrimPrefix(c.Param("path"), "/")
	if rel == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file path provided",
			"requestID": requestID,
		})
		return
	}

	// A row can outlive its file when something deletes it out of
	// band, that's a 404 here and never a crash
	abs, err := a.Media.Resolve(rel)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "File not found",
			"requestID": requestID,
		})
		return
	}

	c.Header("Content-Type", a.Media.ContentTypeFor(rel))
	c.File(abs)
}
