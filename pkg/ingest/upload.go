package ingest

import (
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
)

var (
	ErrUnsupportedFileType = errors.New("only CSV files are allowed")
	ErrUnsafeFileName      = errors.New("file name contains disallowed content")
)

// allowedContentTypes maps an accepted file extension to the media types
// browsers commonly send for it.
var allowedContentTypes = map[string][]string{
	".csv": {"text/csv", "application/csv", "application/vnd.ms-excel", "text/plain"},
	".txt": {"text/plain"},
}

// UnsafeNameError describes why a file name was rejected.
type UnsafeNameError struct {
	FileName    string
	Fingerprint string // libinjection fingerprint, empty for XSS matches
}

func (e *UnsafeNameError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnsafeFileName, e.FileName)
}

func (e *UnsafeNameError) Unwrap() error {
	return ErrUnsafeFileName
}

// ValidateUpload checks an uploaded file's name and declared content type
// before any of its bytes are read.
func ValidateUpload(fileName, contentType string) error {
	base := CleanFileName(fileName)
	if base == "." || base == "/" {
		return ErrUnsupportedFileType
	}

	ext := strings.ToLower(path.Ext(base))
	accepted, ok := allowedContentTypes[ext]
	if !ok {
		return ErrUnsupportedFileType
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ErrUnsupportedFileType
	}
	if !containsFold(accepted, mediaType) {
		return ErrUnsupportedFileType
	}

	// The name is stored and echoed back to clients, so screen it the same way
	// query parameters are screened.
	if isSQLi, fingerprint := libinjection.IsSQLi(base); isSQLi {
		return &UnsafeNameError{FileName: base, Fingerprint: string(fingerprint)}
	}
	if libinjection.IsXSS(base) {
		return &UnsafeNameError{FileName: base}
	}

	return nil
}

// CleanFileName returns the base name of an uploaded file without any
// client-supplied directory components.
func CleanFileName(fileName string) string {
	return path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
