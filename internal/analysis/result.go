package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kdimtricp/piiscan/internal/timecode"
)

// Result is the validated view of a job status payload. Segments are kept
// private so callers get a stable, time-ordered view they cannot reorder.
type Result struct {
	Job        Job
	Transcript string
	Findings   []Finding
	Summary    Summary

	segments []Segment
}

// Segments returns the segments sorted ascending by the parsed start time
// of their range. The returned slice is a copy.
func (r *Result) Segments() []Segment {
	out := make([]Segment, len(r.segments))
	copy(out, r.segments)
	return out
}

// ParseResult decodes and validates a raw job status payload.
func ParseResult(data []byte) (*Result, error) {
	var payload jobPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("malformed job payload: %v", err)}
	}
	return resultFromPayload(&payload)
}

func resultFromPayload(payload *jobPayload) (*Result, error) {
	if payload.JobID == "" {
		return nil, &ProtocolError{Reason: "job payload missing job_id"}
	}

	status, err := ParseStatus(payload.Status)
	if err != nil {
		return nil, err
	}

	job := Job{
		ID:     payload.JobID,
		Status: status,
		Error:  payload.Error,
	}
	if t, ok := parseTimestamp(payload.CreatedAt); ok {
		job.CreatedAt = t
	}
	if t, ok := parseTimestamp(payload.CompletedAt); ok {
		job.CompletedAt = &t
	}

	findings := make([]Finding, 0, len(payload.PIIDetected))
	for _, f := range payload.PIIDetected {
		findings = append(findings, f.toFinding())
	}

	segments := make([]Segment, 0, len(payload.PIISegments))
	for _, s := range payload.PIISegments {
		seg := Segment{TimeRange: s.Timestamp, Text: s.Text}
		for _, f := range s.PII {
			seg.Findings = append(seg.Findings, f.toFinding())
		}
		segments = append(segments, seg)
	}
	sortSegments(segments)

	result := &Result{
		Job:        job,
		Transcript: payload.Transcript,
		Findings:   findings,
		segments:   segments,
	}

	if status == StatusCompleted {
		result.Summary = buildSummary(payload.Summary, findings, segments)
	}

	return result, nil
}

// parseTimestamp accepts RFC 3339 and the service's zone-less ISO form.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// buildSummary takes the server summary when it is present and consistent
// with the findings, and recomputes it otherwise.
func buildSummary(wire *summaryPayload, findings []Finding, segments []Segment) Summary {
	if wire != nil && summaryConsistent(wire, findings) {
		s := Summary{
			TotalFindings:    *wire.TotalPIIItems,
			HasConcerns:      wire.HasPrivacyConcerns,
			CountsByCategory: wire.PIITypes,
		}
		if s.CountsByCategory == nil {
			s.CountsByCategory = map[string]int{}
		}
		if wire.SegmentsWithPII != nil {
			s.SegmentsWithFindings = *wire.SegmentsWithPII
		} else {
			s.SegmentsWithFindings = countSegmentsWithFindings(segments)
		}
		return s
	}
	return computeSummary(findings, segments)
}

func summaryConsistent(wire *summaryPayload, findings []Finding) bool {
	if wire.TotalPIIItems == nil || *wire.TotalPIIItems != len(findings) {
		return false
	}
	counts := countByCategory(findings)
	if len(wire.PIITypes) != len(counts) {
		return len(counts) == 0 && len(wire.PIITypes) == 0
	}
	for category, count := range counts {
		if wire.PIITypes[category] != count {
			return false
		}
	}
	return wire.HasPrivacyConcerns == (len(findings) > 0)
}

func computeSummary(findings []Finding, segments []Segment) Summary {
	return Summary{
		TotalFindings:        len(findings),
		SegmentsWithFindings: countSegmentsWithFindings(segments),
		HasConcerns:          len(findings) > 0,
		CountsByCategory:     countByCategory(findings),
	}
}

func countByCategory(findings []Finding) map[string]int {
	counts := map[string]int{}
	for _, f := range findings {
		counts[f.Category]++
	}
	return counts
}

func countSegmentsWithFindings(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if len(s.Findings) > 0 {
			n++
		}
	}
	return n
}

// sortSegments orders segments ascending by parsed start time. The sort is
// stable so ties keep their server-provided relative order; segments whose
// range does not parse sort after all parseable ones.
func sortSegments(segments []Segment) {
	starts := make([]int, len(segments))
	parseable := make([]bool, len(segments))
	for i, s := range segments {
		start, err := timecode.ParseStart(s.TimeRange)
		starts[i] = start
		parseable[i] = err == nil
	}

	idx := make([]int, len(segments))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if parseable[ia] != parseable[ib] {
			return parseable[ia]
		}
		if !parseable[ia] {
			return false
		}
		return starts[ia] < starts[ib]
	})

	sorted := make([]Segment, len(segments))
	for i, j := range idx {
		sorted[i] = segments[j]
	}
	copy(segments, sorted)
}
