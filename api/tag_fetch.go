package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (a *API) TagFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid tag ID",
			"requestID": requestID,
		})
		return
	}

	tag, err := a.Tags.FindByID(uint(id))
	if err != nil {
		abortWithError(c, err, "Failed to fetch tag")
		return
	}

	c.JSON(http.StatusOK, tag)
}
