package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (a *API) ContentFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid content ID",
			"requestID": requestID,
		})
		return
	}

	content, err := a.Contents.Get(uint(id))
	if err != nil {
		abortWithError(c, err, "Failed to fetch content")
		return
	}

	c.JSON(http.StatusOK, content)
}
