// ABOUTME: Tests for the HTTP API
// ABOUTME: Tests routes, CORS, rate limiting, job records and the progress socket
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ion-space/spaceconvert/internal/store"
	"github.com/ion-space/spaceconvert/pkg/audio"
	"github.com/ion-space/spaceconvert/pkg/audio/encode"
	"github.com/ion-space/spaceconvert/pkg/audio/synth"
	"github.com/ion-space/spaceconvert/pkg/convert"
)

func newTestServer(t *testing.T, config Config) (*Server, *httptest.Server, *store.MemoryStore) {
	t.Helper()
	jobs := store.NewMemoryStore(time.Hour)

	s, err := New(config, jobs, nil, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts, jobs
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body["error"]
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Config{}, nil, nil, nil); err == nil {
		t.Error("expected error without job store")
	}
}

func TestDemo(t *testing.T) {
	_, ts, jobs := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/demo?title=My%20Song")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="my_song.wav"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	data, _ := io.ReadAll(resp.Body)
	if len(data) != 882044 {
		t.Errorf("body is %d bytes, want 882044", len(data))
	}

	jobID := resp.Header.Get("X-Job-ID")
	job, err := jobs.Get(context.Background(), jobID)
	if err != nil {
		t.Fatalf("job %q not stored: %v", jobID, err)
	}
	if job.Status != store.StatusCompleted || job.Size != 882044 || job.FileName != "my_song.wav" {
		t.Errorf("unexpected job record: %+v", job)
	}
}

func TestDemoInvalidURL(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/demo?url=https://example.com/video")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if msg := decodeError(t, resp); msg != "Invalid YouTube URL format!" {
		t.Errorf("error = %q", msg)
	}
}

func TestDemoRecordsVideoID(t *testing.T) {
	_, ts, jobs := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/demo?url=https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()

	job, err := jobs.Get(context.Background(), resp.Header.Get("X-Job-ID"))
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if job.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q", job.VideoID)
	}
}

func TestConvertUpload(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{TargetRate: 44100})

	src := &audio.Buffer{SampleRate: 22050, Data: [][]float64{make([]float64, 100), make([]float64, 100)}}
	input, err := encode.EncodeWAV(src)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(ts.URL+"/api/convert?codec=wav&title=Upload!", "audio/wav", bytes.NewReader(input))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="Upload.wav"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	data, _ := io.ReadAll(resp.Body)
	header, err := encode.ParseHeader(data)
	if err != nil {
		t.Fatalf("response is not WAV: %v", err)
	}
	if header.SampleRate != 44100 || header.NumChannels != 2 || header.DataSize != 200*2*2 {
		t.Errorf("unexpected header: %+v", header)
	}
}

func TestConvertErrors(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{MaxUploadBytes: 64})

	large, err := encode.EncodeWAV(&audio.Buffer{SampleRate: 8000, Data: [][]float64{make([]float64, 500)}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		query  string
		body   []byte
		status int
	}{
		{"missing codec", "", []byte("x"), http.StatusBadRequest},
		{"bad codec", "?codec=ogg", []byte("x"), http.StatusBadRequest},
		{"garbage wav", "?codec=wav", []byte("not a wav file"), http.StatusBadRequest},
		{"too large", "?codec=wav", large, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/convert"+tt.query, "application/octet-stream", bytes.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if decodeError(t, resp) == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/demo"},
		{http.MethodGet, "/api/convert"},
		{http.MethodDelete, "/api/jobs/abc"},
		{http.MethodPut, "/api/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", resp.StatusCode)
			}
			if msg := decodeError(t, resp); msg != "Method not allowed" {
				t.Errorf("error = %q", msg)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/demo", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestJobLookup(t *testing.T) {
	_, ts, jobs := newTestServer(t, Config{})

	jobs.Save(context.Background(), &store.Job{ID: "job-1", Title: "Song", Status: store.StatusProcessing, Progress: 40})

	resp, err := http.Get(ts.URL + "/api/jobs/job-1")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var job store.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	if job.ID != "job-1" || job.Progress != 40 || job.Status != store.StatusProcessing {
		t.Errorf("unexpected job: %+v", job)
	}

	missing, err := http.Get(ts.URL + "/api/jobs/nope")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", missing.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health.Status != "ok" || health.Version == "" || health.Store != "memory" {
		t.Errorf("unexpected health: %+v", health)
	}
}

func TestRateLimit(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{RateLimit: 0.001, RateBurst: 1})

	first, err := http.Get(ts.URL + "/api/jobs/a")
	if err != nil {
		t.Fatal(err)
	}
	first.Body.Close()
	if first.StatusCode == http.StatusTooManyRequests {
		t.Fatal("first request should pass")
	}

	second, err := http.Get(ts.URL + "/api/jobs/a")
	if err != nil {
		t.Fatal(err)
	}
	defer second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", second.StatusCode)
	}
	if second.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("429 responses should carry CORS headers")
	}

	health, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("health should not be rate limited, got %d", health.StatusCode)
	}
}

func TestMetricsRoute(t *testing.T) {
	jobs := store.NewMemoryStore(time.Hour)
	scrape := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("spaceconvert_conversions_total 1\n"))
	})

	s, err := New(Config{}, jobs, nil, scrape)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "spaceconvert_conversions_total") {
		t.Errorf("unexpected metrics body: %q", rr.Body.String())
	}
}

func TestProgressSocket(t *testing.T) {
	_, ts, jobs := newTestServer(t, Config{})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/progress?title=Socket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var percents []int
	var complete ProgressMessage
	var file []byte

	for file == nil {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}

		if msgType == websocket.BinaryMessage {
			file = data
			break
		}

		var msg ProgressMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message %q: %v", data, err)
		}
		switch msg.Type {
		case MessageProgress:
			percents = append(percents, msg.Percent)
		case MessageComplete:
			complete = msg
		default:
			t.Fatalf("unexpected message: %+v", msg)
		}
	}

	expected := []int{20, 40, 60, 80, 100}
	if len(percents) != len(expected) {
		t.Fatalf("percents = %v, want %v", percents, expected)
	}
	for i := range expected {
		if percents[i] != expected[i] {
			t.Errorf("percents = %v, want %v", percents, expected)
			break
		}
	}

	if complete.FileName != "socket.wav" || complete.Size != 882044 {
		t.Errorf("unexpected complete message: %+v", complete)
	}
	if len(file) != 882044 {
		t.Errorf("file is %d bytes, want 882044", len(file))
	}

	job, err := jobs.Get(context.Background(), complete.JobID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if job.Status != store.StatusCompleted {
		t.Errorf("job status = %s", job.Status)
	}
}

func TestStartStop(t *testing.T) {
	s, err := New(Config{Port: 0}, store.NewMemoryStore(time.Hour), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	time.Sleep(50 * time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

// unavailableConfig uses a synthesizer without a rendering context
func unavailableConfig() Config {
	return Config{Synthesizer: synth.New(nil, synth.DefaultParams())}
}

func TestDemoEncoderUnavailable(t *testing.T) {
	_, ts, jobs := newTestServer(t, unavailableConfig())

	resp, err := http.Get(ts.URL + "/api/demo?title=Broken")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	want := convert.FallbackMessage(audio.ErrEncoderUnavailable)
	if got := decodeError(t, resp); got != want {
		t.Errorf("error = %q, want %q", got, want)
	}

	jobID := resp.Header.Get("X-Job-ID")
	if jobID == "" {
		t.Fatal("missing X-Job-ID header")
	}
	job, err := jobs.Get(context.Background(), jobID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if job.Status != store.StatusFailed || job.Message != want {
		t.Errorf("unexpected job: %+v", job)
	}
	if !strings.Contains(job.Error, audio.ErrEncoderUnavailable.Error()) {
		t.Errorf("job error = %q", job.Error)
	}
}

func TestProgressSocketEncoderUnavailable(t *testing.T) {
	_, ts, jobs := newTestServer(t, unavailableConfig())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/progress?title=Broken"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var failure ProgressMessage
	for failure.Type == "" {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if msgType == websocket.BinaryMessage {
			t.Fatal("received file despite synthesis failure")
		}

		var msg ProgressMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message %q: %v", data, err)
		}
		switch msg.Type {
		case MessageProgress:
		case MessageError:
			failure = msg
		default:
			t.Fatalf("unexpected message: %+v", msg)
		}
	}

	want := convert.FallbackMessage(audio.ErrEncoderUnavailable)
	if failure.Error != want {
		t.Errorf("error = %q, want %q", failure.Error, want)
	}

	job, err := jobs.Get(context.Background(), failure.JobID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if job.Status != store.StatusFailed {
		t.Errorf("job status = %q, want failed", job.Status)
	}
}
