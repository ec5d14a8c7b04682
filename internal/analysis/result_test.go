package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/kdimtricp/piiscan/internal/timecode"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		wire    string
		want    Status
		wantErr bool
	}{
		{"queued", StatusPending, false},
		{"pending", StatusPending, false},
		{"processing", StatusProcessing, false},
		{"completed", StatusCompleted, false},
		{"failed", StatusFailed, false},
		{"done", "", true},
		{"", "", true},
		{"COMPLETED", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			got, err := ParseStatus(tt.wire)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseStatus(%q) succeeded, expected error", tt.wire)
				}
				var protoErr *ProtocolError
				if !errors.As(err, &protoErr) {
					t.Errorf("expected *ProtocolError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) returned error: %v", tt.wire, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %s, want %s", tt.wire, got, tt.want)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() {
		t.Error("Non-terminal states reported terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("Terminal states not reported terminal")
	}
}

func TestParseResultMissingJobID(t *testing.T) {
	_, err := ParseResult([]byte(`{"status":"completed"}`))
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("Expected *ProtocolError, got %v", err)
	}
}

func TestParseResultUnknownStatus(t *testing.T) {
	_, err := ParseResult([]byte(`{"job_id":"abc","status":"exploded"}`))
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("Expected *ProtocolError, got %v", err)
	}
}

func TestParseResultCompleted(t *testing.T) {
	payload := `{
		"job_id": "abc-123",
		"status": "completed",
		"transcript": "call me at 555-1234",
		"pii_detected": [
			{"type":"PHONE_NUMBER","text":"555-1234","confidence":0.9,"start":11,"end":19,"model":"ensemble"}
		],
		"pii_segments": [
			{"timestamp":"0:05 -> 0:10","text":"call me at 555-1234","pii":[
				{"type":"PHONE_NUMBER","text":"555-1234","confidence":0.9,"start":11,"end":19,"model":"ensemble"}
			]}
		],
		"summary": {
			"total_pii_items": 1,
			"segments_with_pii": 1,
			"pii_types": {"PHONE_NUMBER": 1},
			"has_privacy_concerns": true
		},
		"created_at": "2025-06-01T10:00:00.123456",
		"completed_at": "2025-06-01T10:01:30.654321"
	}`

	result, err := ParseResult([]byte(payload))
	if err != nil {
		t.Fatalf("ParseResult returned error: %v", err)
	}

	if result.Job.ID != "abc-123" {
		t.Errorf("Job ID = %q, want abc-123", result.Job.ID)
	}
	if result.Job.Status != StatusCompleted {
		t.Errorf("Status = %s, want completed", result.Job.Status)
	}
	if result.Job.CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}
	if result.Job.CompletedAt == nil {
		t.Error("CompletedAt not parsed")
	}
	if len(result.Findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(result.Findings))
	}
	f := result.Findings[0]
	if f.Category != "PHONE_NUMBER" || f.Confidence != 0.9 || f.StartOffset != 11 || f.EndOffset != 19 {
		t.Errorf("Finding mismatch: %+v", f)
	}
	if f.SourceModel != "ensemble" {
		t.Errorf("SourceModel = %q, want ensemble", f.SourceModel)
	}
	if result.Summary.TotalFindings != 1 || !result.Summary.HasConcerns {
		t.Errorf("Summary mismatch: %+v", result.Summary)
	}
	if result.Summary.CountsByCategory["PHONE_NUMBER"] != 1 {
		t.Errorf("CountsByCategory mismatch: %+v", result.Summary.CountsByCategory)
	}
	if len(result.Segments()) != 1 {
		t.Errorf("Expected 1 segment, got %d", len(result.Segments()))
	}
}

func TestParseResultRecomputesInconsistentSummary(t *testing.T) {
	payload := `{
		"job_id": "abc-123",
		"status": "completed",
		"pii_detected": [
			{"type":"EMAIL","text":"a@b.com","confidence":0.8,"start":0,"end":7,"model":"m"},
			{"type":"EMAIL","text":"c@d.com","confidence":0.7,"start":10,"end":17,"model":"m"}
		],
		"pii_segments": [
			{"timestamp":"0:01 -> 0:04","text":"a@b.com","pii":[
				{"type":"EMAIL","text":"a@b.com","confidence":0.8,"start":0,"end":7,"model":"m"}
			]},
			{"timestamp":"0:06 -> 0:09","text":"clean","pii":[]}
		],
		"summary": {
			"total_pii_items": 99,
			"segments_with_pii": 99,
			"pii_types": {"PHONE_NUMBER": 99},
			"has_privacy_concerns": false
		}
	}`

	result, err := ParseResult([]byte(payload))
	if err != nil {
		t.Fatalf("ParseResult returned error: %v", err)
	}

	if result.Summary.TotalFindings != 2 {
		t.Errorf("TotalFindings = %d, want recomputed 2", result.Summary.TotalFindings)
	}
	if result.Summary.CountsByCategory["EMAIL"] != 2 {
		t.Errorf("CountsByCategory = %+v, want EMAIL:2", result.Summary.CountsByCategory)
	}
	if result.Summary.SegmentsWithFindings != 1 {
		t.Errorf("SegmentsWithFindings = %d, want 1", result.Summary.SegmentsWithFindings)
	}
	if !result.Summary.HasConcerns {
		t.Error("HasConcerns should be recomputed to true")
	}
}

func TestParseResultMissingSummaryRecomputed(t *testing.T) {
	payload := `{
		"job_id": "abc-123",
		"status": "completed",
		"pii_detected": [
			{"type":"PERSON","text":"Ann","confidence":0.6,"start":0,"end":3,"model":"m"}
		]
	}`

	result, err := ParseResult([]byte(payload))
	if err != nil {
		t.Fatalf("ParseResult returned error: %v", err)
	}
	if result.Summary.TotalFindings != 1 || !result.Summary.HasConcerns {
		t.Errorf("Summary not recomputed from findings: %+v", result.Summary)
	}
}

func TestParseResultNoFindings(t *testing.T) {
	payload := `{
		"job_id": "abc-123",
		"status": "completed",
		"transcript": "nothing sensitive here",
		"summary": {
			"total_pii_items": 0,
			"segments_with_pii": 0,
			"pii_types": {},
			"has_privacy_concerns": false
		}
	}`

	result, err := ParseResult([]byte(payload))
	if err != nil {
		t.Fatalf("ParseResult returned error: %v", err)
	}
	if result.Summary.HasConcerns {
		t.Error("HasConcerns should be false with zero findings")
	}
	if result.Summary.TotalFindings != 0 {
		t.Errorf("TotalFindings = %d, want 0", result.Summary.TotalFindings)
	}
}

func TestSegmentsSortedForAnyInputOrder(t *testing.T) {
	ranges := []string{
		"0:05 -> 0:10",
		"0:59 -> 1:02",
		"1:02 -> 1:10",
		"2:00 -> 2:30",
		"10:00 -> 10:15",
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]string, len(ranges))
		copy(shuffled, ranges)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		segments := make([]segmentPayload, len(shuffled))
		for i, r := range shuffled {
			segments[i] = segmentPayload{Timestamp: r, Text: fmt.Sprintf("seg %d", i)}
		}
		raw, _ := json.Marshal(jobPayload{
			JobID:       "abc-123",
			Status:      "completed",
			PIISegments: segments,
		})

		result, err := ParseResult(raw)
		if err != nil {
			t.Fatalf("ParseResult returned error: %v", err)
		}

		got := result.Segments()
		prev := -1
		for _, seg := range got {
			start, err := timecode.ParseStart(seg.TimeRange)
			if err != nil {
				t.Fatalf("Unparseable range in output: %q", seg.TimeRange)
			}
			if start < prev {
				t.Fatalf("Segments out of order: %v", got)
			}
			prev = start
		}
	}
}

func TestSegmentsSortStableOnTies(t *testing.T) {
	raw, _ := json.Marshal(jobPayload{
		JobID:  "abc-123",
		Status: "completed",
		PIISegments: []segmentPayload{
			{Timestamp: "0:10 -> 0:12", Text: "first"},
			{Timestamp: "0:10 -> 0:15", Text: "second"},
			{Timestamp: "0:05 -> 0:08", Text: "third"},
		},
	})

	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("ParseResult returned error: %v", err)
	}

	got := result.Segments()
	if got[0].Text != "third" || got[1].Text != "first" || got[2].Text != "second" {
		t.Errorf("Stable tie order violated: %q %q %q", got[0].Text, got[1].Text, got[2].Text)
	}
}

func TestSegmentsUnparseableRangesSortLast(t *testing.T) {
	raw, _ := json.Marshal(jobPayload{
		JobID:  "abc-123",
		Status: "completed",
		PIISegments: []segmentPayload{
			{Timestamp: "garbage", Text: "bad"},
			{Timestamp: "0:05 -> 0:08", Text: "good"},
		},
	})

	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("ParseResult returned error: %v", err)
	}

	got := result.Segments()
	if got[0].Text != "good" || got[1].Text != "bad" {
		t.Errorf("Unparseable range did not sort last: %q %q", got[0].Text, got[1].Text)
	}
}

func TestSegmentsReturnsCopy(t *testing.T) {
	raw, _ := json.Marshal(jobPayload{
		JobID:  "abc-123",
		Status: "completed",
		PIISegments: []segmentPayload{
			{Timestamp: "0:01 -> 0:02", Text: "a"},
			{Timestamp: "0:03 -> 0:04", Text: "b"},
		},
	})

	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("ParseResult returned error: %v", err)
	}

	view := result.Segments()
	view[0], view[1] = view[1], view[0]

	fresh := result.Segments()
	if fresh[0].Text != "a" {
		t.Error("Caller mutation leaked into the stored segment order")
	}
}

func TestParseResultFailedJob(t *testing.T) {
	payload := `{"job_id":"abc-123","status":"failed","error":"ffmpeg exploded"}`

	result, err := ParseResult([]byte(payload))
	if err != nil {
		t.Fatalf("ParseResult returned error: %v", err)
	}
	if result.Job.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", result.Job.Status)
	}
	if result.Job.Error != "ffmpeg exploded" {
		t.Errorf("Error = %q", result.Job.Error)
	}
}
