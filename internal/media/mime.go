package media

import (
	"path/filepath"
	"strings"
)

// DefaultContentType is used for unknown or missing extensions.
const DefaultContentType = "video/mp4"

// contentTypes is the full extension to MIME type table. Anything not
// listed here falls back to DefaultContentType rather than failing.
var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
}

// ContentTypeForPath infers the MIME type from a file path's extension.
func ContentTypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return DefaultContentType
}
