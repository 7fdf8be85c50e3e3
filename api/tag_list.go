package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) TagList(c *gin.Context) {
	tags, err := a.Tags.FindAll()
	if err != nil {
		abortWithError(c, err, "Failed to list tags")
		return
	}

	c.JSON(http.StatusOK, tags)
}
