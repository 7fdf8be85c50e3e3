package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"medialib/content-api/service"
	"medialib/content-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) ContentUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid content ID",
			"requestID": requestID,
		})
		return
	}

	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed multipart form",
			"requestID": requestID,
		})
		return
	}

	var fh *multipart.FileHeader
	if files := form.File["file"]; len(files) > 0 {
		fh = files[0]

		if code, err := validators.UploadValidator(fh); err != nil {
			if code == http.StatusInternalServerError {
				zap.L().Error("Failed to validate file", zap.Error(err))
				err = errors.New("internal server error")
			}

			c.AbortWithStatusJSON(code, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}
	}

	// Only fields present in the form end up in the patch, so an
	// omitted field and one sent as an explicit zero value stay
	// distinguishable
	patch := service.UpdatePatch{}

	if v, ok := form.Value["title"]; ok && len(v) > 0 {
		patch.Title = &v[0]
	}

	if v, ok := form.Value["description"]; ok && len(v) > 0 {
		patch.Description = &v[0]
	}

	if v, ok := form.Value["isPublic"]; ok && len(v) > 0 {
		b, err := strconv.ParseBool(v[0])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "isPublic must be a boolean",
				"requestID": requestID,
			})
			return
		}
		patch.IsPublic = &b
	}

	if v, ok := form.Value["tags"]; ok {
		patch.TagNames = service.ParseNames(v)
	}

	content, err := a.Contents.Update(uint(id), patch, fh)
	if err != nil {
		abortWithError(c, err, "Failed to update content")
		return
	}

	c.JSON(http.StatusOK, content)
}
