package media

import "testing"

func TestContentTypeForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"clip.mov", "video/quicktime"},
		{"clip.MOV", "video/quicktime"},
		{"clip.mkv", "video/x-matroska"},
		{"clip.mp4", "video/mp4"},
		{"clip.webm", "video/webm"},
		{"clip.xyz", DefaultContentType},
		{"clip", DefaultContentType},
		{"/some/dir/recording.m4a", "audio/mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ContentTypeForPath(tt.path); got != tt.want {
				t.Errorf("ContentTypeForPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
