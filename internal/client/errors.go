package client

import "fmt"

// UploadError is a transport-level failure or non-success status on
// submission. Detail carries the server-supplied human-readable cause
// when one was present.
type UploadError struct {
	StatusCode int
	Detail     string
}

func (e *UploadError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upload failed (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("upload failed with status %d", e.StatusCode)
}
