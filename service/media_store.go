// Package service holds the media storage, tag resolution and content
// orchestration used by the API handlers
package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// ErrFileMissing is returned by Resolve when the requested path doesn't
// exist under the media root.
var ErrFileMissing = errors.New("file not found")

var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
}

// MediaStore places uploaded binaries under a single configured media
// root and resolves stored relative paths back to absolute files for
// serving. There is exactly one root, a file that isn't under it is a
// miss.
type MediaStore struct {
	Root string
}

func NewMediaStore() *MediaStore {
	return &MediaStore{Root: viper.GetString("storage.media_root")}
}

// EnsureLayout creates the media root and its subdirectories. Called
// once during startup so nothing has to create directories per request.
func (m *MediaStore) EnsureLayout() error {
	for _, dir := range []string{"videos", "images", "thumbnails"} {
		if err := os.MkdirAll(filepath.Join(m.Root, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create media directory %s, %w", dir, err)
		}
	}
	return nil
}

var (
	tsMu   sync.Mutex
	lastTS int64
)

// nextTimestamp hands out strictly increasing millisecond values so two
// uploads in the same millisecond can't collide, and a name freed by a
// replacement can't be handed out again within the process.
func nextTimestamp() int64 {
	tsMu.Lock()
	defer tsMu.Unlock()

	ts := time.Now().UnixMilli()
	if ts <= lastTS {
		ts = lastTS + 1
	}
	lastTS = ts

	return ts
}

// Place writes an upload to disk and returns its path relative to the
// media root. Videos land in videos/, everything else in images/.
// Filenames embed the upload's unix millisecond timestamp; the
// exclusive create plus the timestamp bump keeps names unique even
// against files left over from earlier runs.
func (m *MediaStore) Place(mimeType, originalName string, src io.Reader) (string, error) {
	dir, prefix := "images", "image"
	if strings.HasPrefix(mimeType, "video") {
		dir, prefix = "videos", "video"
	}

	ext := path.Ext(originalName)

	var dst *os.File
	var rel string

	for ts := nextTimestamp(); ; ts++ {
		rel = path.Join(dir, fmt.Sprintf("%s_%d%s", prefix, ts, ext))

		f, err := os.OpenFile(filepath.Join(m.Root, rel), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			dst = f
			break
		}

		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to create media file, %w", err)
		}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filepath.Join(m.Root, rel))
		return "", fmt.Errorf("failed to write media file, %w", err)
	}

	return rel, nil
}

// PlaceUpload opens a multipart file and places it using its declared
// Content-Type. The header must have been validated already.
func (m *MediaStore) PlaceUpload(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload, %w", err)
	}
	defer f.Close()

	return m.Place(fh.Header.Get("Content-Type"), fh.Filename, f)
}

// Delete removes a stored file. A file that's already gone counts as
// success so replacement and removal stay idempotent.
func (m *MediaStore) Delete(rel string) error {
	abs, err := m.join(rel)
	if err != nil {
		return nil
	}

	err = os.Remove(abs)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete media file, %w", err)
	}

	return nil
}

// Resolve maps a stored relative path to an absolute one under the
// media root, or reports a miss.
func (m *MediaStore) Resolve(rel string) (string, error) {
	abs, err := m.join(rel)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", ErrFileMissing
	}

	return abs, nil
}

// ContentTypeFor derives the serving MIME type from the file extension.
// Unknown extensions are served as a generic binary.
func (m *MediaStore) ContentTypeFor(rel string) string {
	if mt, ok := mimeByExt[strings.ToLower(path.Ext(rel))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// join anchors rel under the media root. Cleaning against a fake
// absolute root strips any ".." escapes before they can leave it.
func (m *MediaStore) join(rel string) (string, error) {
	rel = path.Clean("/" + strings.ReplaceAll(rel, "\\", "/"))[1:]
	if rel == "" || rel == "." {
		return "", ErrFileMissing
	}

	return filepath.Join(m.Root, filepath.FromSlash(rel)), nil
}
