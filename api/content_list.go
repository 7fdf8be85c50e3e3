package api

import (
	"net/http"
	"strconv"

	"medialib/content-api/service"

	"github.com/gin-gonic/gin"
)

func (a *API) ContentList(c *gin.Context) {
	// Bad or missing paging values fall back to the defaults, the
	// service clamps non-positive ones the same way
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}

	list, err := a.Contents.List(page, limit, service.ListFilter{
		Type:    c.Query("type"),
		Keyword: c.Query("keyword"),
		Tag:     c.Query("tag"),
	})
	if err != nil {
		abortWithError(c, err, "Failed to list contents")
		return
	}

	c.JSON(http.StatusOK, list)
}
