// ABOUTME: HTTP handlers for demo, upload conversion, job lookup and health
// ABOUTME: Errors are returned as JSON objects with an "error" field
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ion-space/spaceconvert/internal/store"
	"github.com/ion-space/spaceconvert/internal/version"
	"github.com/ion-space/spaceconvert/pkg/convert"
)

const (
	kindDemo      = "demo"
	kindTranscode = "transcode"
	kindProgress  = "progress"
)

// HealthResponse is the body of /api/health
type HealthResponse struct {
	Status        string `json:"status"`
	Product       string `json:"product"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Store         string `json:"store"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// allowMethod writes a 405 and returns false unless r uses method
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// writeFile sends a finished conversion as an attachment
func writeFile(w http.ResponseWriter, jobID string, file *convert.File) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("X-Job-ID", jobID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		log.Printf("Job %s: failed to write response: %v", jobID, err)
	}
}

// videoIDParam validates the optional url parameter
func videoIDParam(r *http.Request) (string, error) {
	url := r.URL.Query().Get("url")
	if url == "" {
		return "", nil
	}
	return convert.ExtractVideoID(url)
}

// handleDemo serves the synthesized placeholder as <title>.wav
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	videoID, err := videoIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, convert.FallbackMessage(err))
		return
	}
	title := r.URL.Query().Get("title")

	job, file, err := s.runJob(r.Context(), s.converter, kindDemo, title, videoID, nil,
		func(ctx context.Context, c *convert.Converter, jobID string) (*convert.Result, error) {
			return c.DemoJob(ctx, jobID, title)
		})
	if err != nil {
		w.Header().Set("X-Job-ID", job.ID)
		writeError(w, http.StatusServiceUnavailable, convert.FallbackMessage(err))
		return
	}

	writeFile(w, job.ID, file)
}

// handleConvert decodes an uploaded mp3, flac or wav body and returns WAV
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	codec := r.URL.Query().Get("codec")
	if codec == "" {
		writeError(w, http.StatusBadRequest, "codec required (mp3, flac or wav)")
		return
	}
	title := r.URL.Query().Get("title")

	body := http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	defer body.Close()

	job, file, err := s.runJob(r.Context(), s.converter, kindTranscode, title, "", nil,
		func(ctx context.Context, c *convert.Converter, jobID string) (*convert.Result, error) {
			return c.TranscodeJob(ctx, jobID, body, codec, title)
		})
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to convert audio")
		return
	}

	writeFile(w, job.ID, file)
}

// handleJob returns a stored job record
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	job, err := s.jobs.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		log.Printf("Failed to load job: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	storeKind := "memory"
	if _, ok := s.jobs.(*store.RedisStore); ok {
		storeKind = "redis"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Product:       version.Product,
		Version:       version.Version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Store:         storeKind,
	})
}
