package media

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrResourceUnavailable means both the copy and the download path
	// failed to produce a readable local file.
	ErrResourceUnavailable = errors.New("media resource unavailable")

	// ErrPermissionDenied means the platform refused access to the source.
	ErrPermissionDenied = errors.New("media access permission denied")
)

// Origin says where a resource came from.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Resource is a media reference guaranteed readable as a local byte
// stream. It is not mutated after normalization; ephemeral copies must be
// released via Normalizer.Release when the caller is done with them.
type Resource struct {
	Origin      Origin
	Path        string
	ContentType string
	Ephemeral   bool
}

// Filename returns the base name used when uploading the resource.
func (r *Resource) Filename() string {
	return filepath.Base(r.Path)
}

// Normalizer turns arbitrary media references into local resources.
type Normalizer struct {
	cacheDir   string
	httpClient *http.Client
}

const cachePrefix = "pii-"

func NewNormalizer(cacheDir string) (*Normalizer, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Normalizer{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Normalize resolves a reference of unknown addressability. A readable
// local path is returned as-is with no I/O. Anything else is copied into
// the cache dir, falling back to an HTTP download when the copy fails.
func (n *Normalizer) Normalize(ref string) (*Resource, error) {
	if isLocalFile(ref) {
		return &Resource{
			Origin:      OriginLocal,
			Path:        ref,
			ContentType: ContentTypeForPath(ref),
		}, nil
	}

	ext := filepath.Ext(refPath(ref))
	if ext == "" {
		ext = ".mp4"
	}

	// Unique destination per normalization, so concurrent runs never
	// collide on the same cache path.
	dest := filepath.Join(n.cacheDir, fmt.Sprintf("%s%s%s", cachePrefix, uuid.New().String(), ext))

	copyErr := copyFile(ref, dest)
	if copyErr == nil {
		return &Resource{
			Origin:      OriginLocal,
			Path:        dest,
			ContentType: ContentTypeForPath(dest),
			Ephemeral:   true,
		}, nil
	}
	if errors.Is(copyErr, os.ErrPermission) {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, copyErr)
	}

	if err := n.download(ref, dest); err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("%w: copy: %v, download: %v", ErrResourceUnavailable, copyErr, err)
	}

	return &Resource{
		Origin:      OriginRemote,
		Path:        dest,
		ContentType: ContentTypeForPath(dest),
		Ephemeral:   true,
	}, nil
}

// Release deletes the cached copy backing an ephemeral resource.
// Non-ephemeral resources are left untouched.
func (n *Normalizer) Release(r *Resource) error {
	if r == nil || !r.Ephemeral {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to release cached resource: %w", err)
	}
	return nil
}

func (n *Normalizer) download(ref, dest string) error {
	resp, err := n.httpClient.Get(ref)
	if err != nil {
		return fmt.Errorf("failed to download resource: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, resp.Body); err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to save download: %w", err)
	}

	return nil
}

func isLocalFile(ref string) bool {
	if strings.Contains(ref, "://") {
		return false
	}
	info, err := os.Stat(ref)
	return err == nil && info.Mode().IsRegular()
}

// refPath strips any query portion from a URL-ish reference so the
// extension can be inferred.
func refPath(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return ref
}

func copyFile(src, dest string) error {
	if strings.Contains(src, "://") {
		return fmt.Errorf("not a filesystem path: %s", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to copy file: %w", err)
	}

	return nil
}
