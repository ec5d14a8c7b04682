package analysis

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a server-side analysis job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus maps a wire status value onto the known states. The server
// reports freshly created jobs as "queued".
func ParseStatus(wire string) (Status, error) {
	switch wire {
	case "queued", "pending":
		return StatusPending, nil
	case "processing":
		return StatusProcessing, nil
	case "completed":
		return StatusCompleted, nil
	case "failed":
		return StatusFailed, nil
	default:
		return "", &ProtocolError{Reason: fmt.Sprintf("unrecognized job status %q", wire)}
	}
}

// ProtocolError means the server response violated the expected field
// contract (missing job id, unknown status, inconsistent summary shape).
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}

// Job is the client-side view of a server-tracked analysis job.
type Job struct {
	ID          string
	Status      Status
	CreatedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Finding is a single detected PII span. Immutable once parsed.
type Finding struct {
	Category    string
	Text        string
	Confidence  float64
	StartOffset int
	EndOffset   int
	SourceModel string
}

// Segment is a contiguous time range of the media with the transcript
// excerpt and the findings located inside it.
type Segment struct {
	TimeRange string
	Text      string
	Findings  []Finding
}

// Summary aggregates findings across the whole transcript.
type Summary struct {
	TotalFindings        int
	SegmentsWithFindings int
	HasConcerns          bool
	CountsByCategory     map[string]int
}

// ---- Wire types, field names per the analysis service ----

type findingPayload struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Model      string  `json:"model"`
}

type segmentPayload struct {
	Timestamp string           `json:"timestamp"`
	Text      string           `json:"text"`
	PII       []findingPayload `json:"pii"`
}

type summaryPayload struct {
	TotalPIIItems      *int           `json:"total_pii_items"`
	SegmentsWithPII    *int           `json:"segments_with_pii"`
	PIITypes           map[string]int `json:"pii_types"`
	HasPrivacyConcerns bool           `json:"has_privacy_concerns"`
}

type jobPayload struct {
	JobID       string           `json:"job_id"`
	Status      string           `json:"status"`
	Transcript  string           `json:"transcript"`
	PIIDetected []findingPayload `json:"pii_detected"`
	PIISegments []segmentPayload `json:"pii_segments"`
	Summary     *summaryPayload  `json:"summary"`
	CreatedAt   string           `json:"created_at"`
	CompletedAt string           `json:"completed_at"`
	Error       string           `json:"error"`
}

func (p findingPayload) toFinding() Finding {
	return Finding{
		Category:    p.Type,
		Text:        p.Text,
		Confidence:  p.Confidence,
		StartOffset: p.Start,
		EndOffset:   p.End,
		SourceModel: p.Model,
	}
}
