package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"medialib/content-api/api"
	"medialib/content-api/config"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

type contentResp struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	FilePath      string `json:"filePath"`
	ThumbnailPath string `json:"thumbnailPath"`
	IsPublic      bool   `json:"isPublic"`
	Tags          []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"tags"`
}

type listResp struct {
	Data       []contentResp `json:"data"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

func newTestAPI(t *testing.T) *api.API {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	viper.Set("db.driver", "sqlite")
	viper.Set("db.path", filepath.Join(dir, "test.db"))
	viper.Set("storage.media_root", filepath.Join(dir, "media"))
	viper.Set("upload.max_size", int64(500)<<20)
	viper.Set("upload.allowed_types", config.DefaultAllowedTypes)

	a, err := api.NewRouter()
	require.NoError(t, err)

	return a
}

func do(a *api.API, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, method, url string, fields map[string]string, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func createContent(t *testing.T, a *api.API, fields map[string]string) contentResp {
	t.Helper()

	w := do(a, uploadRequest(t, http.MethodPost, "/contents", fields, "pic.png", "image/png", pngData))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp contentResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestContentLifecycle(t *testing.T) {
	a := newTestAPI(t)

	created := createContent(t, a, map[string]string{
		"title":       "Team photo",
		"description": "Offsite 2025",
		"type":        "image",
		"tags":        "offsite,people",
	})

	assert.NotZero(t, created.ID)
	assert.Equal(t, "Team photo", created.Title)
	assert.True(t, created.IsPublic)
	require.Len(t, created.Tags, 2)
	assert.Equal(t, "offsite", created.Tags[0].Name)

	// The created file must be servable with the right type
	w := do(a, httptest.NewRequest(http.MethodGet, "/contents/media/"+created.FilePath, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngData, w.Body.Bytes())

	// Detail fetch
	w = do(a, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/contents/%d", created.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var fetched contentResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.FilePath, fetched.FilePath)

	// Listing
	w = do(a, httptest.NewRequest(http.MethodGet, "/contents", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list listResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, 1, list.TotalPages)
	require.Len(t, list.Data, 1)

	// Delete and verify everything is gone
	w = do(a, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/contents/%d", created.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, w.Body.String())

	w = do(a, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/contents/%d", created.ID), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(a, httptest.NewRequest(http.MethodGet, "/contents/media/"+created.FilePath, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentCreateRejectsBadUploads(t *testing.T) {
	a := newTestAPI(t)

	// Unsupported type
	w := do(a, uploadRequest(t, http.MethodPost, "/contents", map[string]string{
		"title": "Nope",
		"type":  "image",
	}, "notes.txt", "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// No file at all
	w = do(a, uploadRequest(t, http.MethodPost, "/contents", map[string]string{
		"title": "Nope",
		"type":  "image",
	}, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Nothing may exist after rejections
	w = do(a, httptest.NewRequest(http.MethodGet, "/contents", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list listResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Zero(t, list.Total)
}

func TestContentUpdatePartial(t *testing.T) {
	a := newTestAPI(t)

	created := createContent(t, a, map[string]string{
		"title": "Before",
		"type":  "image",
	})
	require.True(t, created.IsPublic)

	// Sending only isPublic=false must flip the flag and leave the
	// rest untouched
	w := do(a, uploadRequest(t, http.MethodPut, fmt.Sprintf("/contents/%d", created.ID), map[string]string{
		"isPublic": "false",
	}, "", "", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated contentResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.False(t, updated.IsPublic)
	assert.Equal(t, "Before", updated.Title)
	assert.Equal(t, created.FilePath, updated.FilePath)

	w = do(a, uploadRequest(t, http.MethodPut, "/contents/9999", map[string]string{
		"title": "ghost",
	}, "", "", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMediaServeMissingFile(t *testing.T) {
	a := newTestAPI(t)

	w := do(a, httptest.NewRequest(http.MethodGet, "/contents/media/videos/missing.mp4", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	// Must be a JSON error body, not a crash or an empty reply
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestTagEndpoints(t *testing.T) {
	a := newTestAPI(t)

	createContent(t, a, map[string]string{
		"title": "Tagged",
		"type":  "image",
		"tags":  "zebra,apple",
	})

	w := do(a, httptest.NewRequest(http.MethodGet, "/tags", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var tags []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	require.Len(t, tags, 2)
	assert.Equal(t, "apple", tags[0].Name)
	assert.Equal(t, "zebra", tags[1].Name)

	w = do(a, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/tags/%d", tags[0].ID), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Name     string `json:"name"`
		Contents []struct {
			Title string `json:"title"`
		} `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "apple", detail.Name)
	require.Len(t, detail.Contents, 1)
	assert.Equal(t, "Tagged", detail.Contents[0].Title)

	w = do(a, httptest.NewRequest(http.MethodGet, "/tags/9999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHeartbeat(t *testing.T) {
	a := newTestAPI(t)

	w := do(a, httptest.NewRequest(http.MethodHead, "/heartbeat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
