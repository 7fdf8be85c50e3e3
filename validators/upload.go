// Package validators contains checks run against client input before it
// touches storage
package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrNoFile              = errors.New("no file provided")
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
)

// UploadValidator checks an incoming file against the configured type
// allowlist and size cap. The declared Content-Type header is checked
// first which is easy to spoof but fast for legit clients, then the
// actual bytes are sniffed to catch mislabeled uploads. Returns the
// status code to respond with on failure.
func UploadValidator(fh *multipart.FileHeader) (int, error) {
	if fh == nil {
		return http.StatusBadRequest, ErrNoFile
	}

	allowed := viper.GetStringSlice("upload.allowed_types")

	ct := fh.Header.Get("Content-Type")
	if !slices.Contains(allowed, ct) {
		return http.StatusBadRequest, ErrFileTypeUnsupported
	}

	if fh.Size > viper.GetInt64("upload.max_size") {
		return http.StatusRequestEntityTooLarge, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, err
	}
	defer f.Close()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	detected := false
	for _, a := range allowed {
		if mime.Is(a) {
			detected = true
			break
		}
	}

	if !detected {
		return http.StatusBadRequest, ErrFileTypeUnsupported
	}

	return 0, nil
}
