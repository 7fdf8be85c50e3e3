package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (a *API) ContentDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid content ID",
			"requestID": requestID,
		})
		return
	}

	if err := a.Contents.Remove(uint(id)); err != nil {
		abortWithError(c, err, "Failed to delete content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
