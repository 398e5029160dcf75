// ABOUTME: HTTP server for the converter API
// ABOUTME: Wires routes, middleware, the job store and mDNS advertisement
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ion-space/spaceconvert/internal/discovery"
	"github.com/ion-space/spaceconvert/internal/observe"
	"github.com/ion-space/spaceconvert/internal/store"
	"github.com/ion-space/spaceconvert/internal/version"
	"github.com/ion-space/spaceconvert/pkg/audio/synth"
	"github.com/ion-space/spaceconvert/pkg/convert"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/time/rate"
)

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool

	// RateLimit is requests per second across all clients. Zero disables limiting.
	RateLimit      float64
	RateBurst      int
	MaxUploadBytes int64

	// TargetRate resamples uploads. Zero keeps the source rate.
	TargetRate int

	// StepDelay paces progress messages on the WebSocket endpoint
	StepDelay time.Duration

	// Synthesizer renders demo audio. Nil uses the default chord.
	Synthesizer *synth.Synthesizer
}

// Server serves the converter API
type Server struct {
	config    Config
	converter *convert.Converter
	paced     *convert.Converter
	jobs      store.Store
	metrics   *observe.Metrics
	scrape    http.Handler
	limiter   *rate.Limiter

	upgrader websocket.Upgrader

	mux        *http.ServeMux
	handler    http.Handler
	httpServer *http.Server

	mdnsManager *discovery.Manager

	startTime time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// New creates a server. metrics and scrape may be nil.
func New(config Config, jobs store.Store, metrics *observe.Metrics, scrape http.Handler) (*Server, error) {
	if jobs == nil {
		return nil, fmt.Errorf("job store is required")
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 100 << 20
	}
	if config.Name == "" {
		config.Name = version.Product
	}

	if metrics == nil {
		m, err := observe.NewMetrics(noop.NewMeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		metrics = m
	}

	convertConfig := convert.Config{
		Synthesizer: config.Synthesizer,
		TargetRate:  config.TargetRate,
	}
	pacedConfig := convertConfig
	pacedConfig.StepDelay = config.StepDelay

	s := &Server{
		config:    config,
		converter: convert.New(convertConfig),
		paced:     convert.New(pacedConfig),
		jobs:      jobs,
		metrics:   metrics,
		scrape:    scrape,
		upgrader: websocket.Upgrader{
			// The API is public and already sends Access-Control-Allow-Origin: *
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux:       http.NewServeMux(),
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}

	if config.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst)
	}

	s.routes()
	s.handler = observe.Middleware(s.metrics)(s.cors(s.rateLimit(s.mux)))

	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/demo", s.handleDemo)
	s.mux.HandleFunc("/api/convert", s.handleConvert)
	s.mux.HandleFunc("/api/jobs/{id}", s.handleJob)
	s.mux.HandleFunc("/api/progress", s.handleProgress)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	if s.scrape != nil {
		s.mux.Handle("/metrics", s.scrape)
	}
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until Stop is called or the listener fails
func (s *Server) Start() error {
	log.Printf("Server starting: %s", s.config.Name)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Version:     version.Version,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	if mem, ok := s.jobs.(*store.MemoryStore); ok {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			mem.RunCleanup(cleanupCtx, 10*time.Minute)
		}()
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("HTTP server listening on %s", addr)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	stopCleanup()
	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}
