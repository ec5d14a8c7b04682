package poller

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kdimtricp/piiscan/internal/analysis"
	"github.com/kdimtricp/piiscan/internal/client"
	"github.com/kdimtricp/piiscan/internal/fakeserver"
	"github.com/kdimtricp/piiscan/internal/media"
)

// Full pipeline: upload a file, poll the job to completion, check the
// validated result.
func TestPollerAgainstFakeServer(t *testing.T) {
	srv := httptest.NewServer(fakeserver.New().Router())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("fake video content"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	c := client.New(srv.URL)
	ctx := context.Background()

	jobID, err := c.UploadVideo(ctx, &media.Resource{
		Origin:      media.OriginLocal,
		Path:        path,
		ContentType: media.ContentTypeForPath(path),
	})
	if err != nil {
		t.Fatalf("UploadVideo returned error: %v", err)
	}

	p := New(c, jobID, Options{Interval: 5 * time.Millisecond})
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	var statuses []analysis.Status
	var final *analysis.Result
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u, ok := <-p.Updates():
			if !ok {
				goto done
			}
			if u.Kind != UpdateStatus {
				t.Fatalf("Unexpected update: %+v", u)
			}
			statuses = append(statuses, u.Result.Job.Status)
			final = u.Result
		case <-deadline:
			t.Fatal("Timed out waiting for job completion")
		}
	}

done:
	if len(statuses) < 2 {
		t.Fatalf("Expected at least two fetches, got %v", statuses)
	}
	if statuses[0] != analysis.StatusPending {
		t.Errorf("First status = %s, want pending", statuses[0])
	}
	if statuses[len(statuses)-1] != analysis.StatusCompleted {
		t.Errorf("Final status = %s, want completed", statuses[len(statuses)-1])
	}

	if final.Summary.TotalFindings == 0 || !final.Summary.HasConcerns {
		t.Errorf("Summary = %+v, expected findings and concerns", final.Summary)
	}
	segments := final.Segments()
	if len(segments) != 1 {
		t.Fatalf("Expected one segment, got %d", len(segments))
	}
	if segments[0].TimeRange != "0:05 -> 0:10" {
		t.Errorf("TimeRange = %q", segments[0].TimeRange)
	}
	if len(segments[0].Findings) == 0 {
		t.Error("Segment should carry findings")
	}
}
