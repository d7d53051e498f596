// Package media ties uploaded files to the product records that reference them.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"catalog_back_end/internal/models"
)

// URLPrefix is the servable prefix of every stored file.
const URLPrefix = "/uploads/"

var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
}

// Classify decides from the extension whether path is a video or an image.
func Classify(p string) models.MediaKind {
	if videoExtensions[strings.ToLower(path.Ext(p))] {
		return models.MediaVideo
	}
	return models.MediaImage
}

// Primary builds the primary media for a stored path.
func Primary(p string) models.PrimaryMedia {
	if Classify(p) == models.MediaVideo {
		return models.VideoMedia(p)
	}
	return models.ImageMedia(p)
}

// Object is a stored file opened for reading.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Store is a place uploaded files live. Store returns the servable path of the new
// file, Remove deletes by servable path and ignores files that are already gone.
type Store interface {
	Store(ctx context.Context, file *multipart.FileHeader) (string, error)
	Remove(ctx context.Context, path string) error
	Open(ctx context.Context, name string) (*Object, error)
}

// objectName returns the stored name for an upload: "<unix-ms>-<original name>".
func objectName(now time.Time, filename string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), cleanFilename(filename))
}

func cleanFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}

// nameFromPath maps a servable path back to a stored name. Anything outside
// URLPrefix, or trying to leave it, yields "".
func nameFromPath(p string) string {
	if !strings.HasPrefix(p, URLPrefix) {
		return ""
	}
	name := strings.TrimPrefix(p, URLPrefix)
	if !validName(name) {
		return ""
	}
	return name
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func contentType(name string, header string) string {
	if header != "" {
		return header
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
