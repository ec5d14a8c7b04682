// Package fakeserver is an in-memory stand-in for the analysis service.
// It implements the full wire contract with a toy regex detector, so the
// client and poller can be exercised locally and in tests without the
// real ML pipeline.
package fakeserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxUploadSize = 256 << 20

// Server holds the in-memory job store.
type Server struct {
	mu   sync.Mutex
	jobs map[string]*job

	// FetchesUntilDone is how many status fetches a job needs before it
	// reports completed. The default of 1 means the first fetch sees
	// queued and the second sees completed. Deterministic for tests.
	FetchesUntilDone int

	// Transcript served for every completed job.
	Transcript string
}

type job struct {
	ID          string
	Status      string
	Filename    string
	CreatedAt   time.Time
	CompletedAt *time.Time
	fetches     int
}

func New() *Server {
	return &Server{
		jobs:             make(map[string]*job),
		FetchesUntilDone: 1,
		Transcript:       "Hi, this is John Smith, call me at 555-123-4567 or mail john@example.com",
	}
}

// Router wires the wire-contract routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/analyze/video", s.handleAnalyzeVideo)
	r.Post("/analyze/text", s.handleAnalyzeText)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleDeleteJob)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleAnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeDetail(w, http.StatusBadRequest, "File too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") && !strings.HasPrefix(contentType, "audio/") {
		writeDetail(w, http.StatusBadRequest, "File must be a video or audio file")
		return
	}

	j := &job{
		ID:        uuid.New().String(),
		Status:    "queued",
		Filename:  header.Filename,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"job_id":           j.ID,
		"status":           j.Status,
		"message":          "Video uploaded successfully. Analysis started.",
		"check_status_url": "/jobs/" + j.ID,
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	j, ok := s.jobs[jobID]
	var payload map[string]any
	if ok {
		// Report the current state, then advance for the next fetch.
		payload = s.jobPayload(j)
		s.advance(j)
	}
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// advance moves a job along its lifecycle based on how often it has been
// fetched. Callers hold s.mu.
func (s *Server) advance(j *job) {
	if j.Status == "completed" || j.Status == "failed" {
		return
	}
	j.fetches++
	if j.fetches >= s.FetchesUntilDone {
		j.Status = "completed"
		now := time.Now()
		j.CompletedAt = &now
	} else {
		j.Status = "processing"
	}
}

func (s *Server) jobPayload(j *job) map[string]any {
	payload := map[string]any{
		"job_id":     j.ID,
		"status":     j.Status,
		"created_at": j.CreatedAt.Format(time.RFC3339),
	}
	if j.CompletedAt != nil {
		payload["completed_at"] = j.CompletedAt.Format(time.RFC3339)
	}
	if j.Status != "completed" {
		return payload
	}

	findings := detectPII(s.Transcript)
	segments := []map[string]any{
		{"timestamp": "0:05 -> 0:10", "text": s.Transcript, "pii": findings},
	}

	byType := map[string]int{}
	for _, f := range findings {
		byType[f["type"].(string)]++
	}

	payload["transcript"] = s.Transcript
	payload["pii_detected"] = findings
	payload["pii_segments"] = segments
	payload["summary"] = map[string]any{
		"total_pii_items":      len(findings),
		"segments_with_pii":    len(segments),
		"pii_types":            byType,
		"has_privacy_concerns": len(findings) > 0,
	}
	return payload
}

func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	findings := detectPII(req.Text)
	byType := map[string]int{}
	for _, f := range findings {
		byType[f["type"].(string)]++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pii_detected": findings,
		"summary": map[string]any{
			"total_pii_items":      len(findings),
			"pii_types":            byType,
			"has_privacy_concerns": len(findings) > 0,
		},
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	s.mu.Lock()
	all := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		all = append(all, j)
	}
	s.mu.Unlock()

	// Newest first.
	for i := 0; i < len(all)-1; i++ {
		for k := i + 1; k < len(all); k++ {
			if all[k].CreatedAt.After(all[i].CreatedAt) {
				all[i], all[k] = all[k], all[i]
			}
		}
	}

	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}

	listings := make([]map[string]any, 0, len(all))
	for _, j := range all {
		entry := map[string]any{
			"job_id":     j.ID,
			"status":     j.Status,
			"created_at": j.CreatedAt.Format(time.RFC3339),
		}
		if j.CompletedAt != nil {
			entry["completed_at"] = j.CompletedAt.Format(time.RFC3339)
		}
		listings = append(listings, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":   listings,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	_, ok := s.jobs[jobID]
	delete(s.jobs, jobID)
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Job %s deleted successfully", jobID),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
