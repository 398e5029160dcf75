// ABOUTME: Entry point for the converter HTTP service
// ABOUTME: Loads config, wires metrics and the job store, and serves the API
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ion-space/spaceconvert/internal/config"
	"github.com/ion-space/spaceconvert/internal/observe"
	"github.com/ion-space/spaceconvert/internal/server"
	"github.com/ion-space/spaceconvert/internal/store"
	"github.com/ion-space/spaceconvert/internal/version"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	port       = flag.Int("port", 0, "HTTP port (default: server.port)")
	name       = flag.String("name", "", "Server friendly name (default: hostname-spaceconvert)")
	logFile    = flag.String("log-file", "", "Log file path (default: log_file)")
	redisAddr  = flag.String("redis", "", "Redis address for the job store (default: redis.addr)")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Flags override file and environment
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *redisAddr != "" {
		cfg.Redis.Addr = *redisAddr
	}
	if *noMDNS {
		cfg.Discovery.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Log to both file and stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	serverName := *name
	if serverName == "" {
		serverName = cfg.Discovery.Name
	}
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-spaceconvert", hostname)
	}

	log.Printf("Starting %s %s: %s on port %d", version.Product, version.Version, serverName, cfg.Server.Port)
	log.Printf("Press Ctrl-C to stop")

	var metrics *observe.Metrics
	var scrape http.Handler
	if cfg.Server.Metrics {
		provider, err := observe.InitProvider("spaceconvert", version.Version)
		if err != nil {
			log.Fatalf("Failed to initialise metrics: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(ctx); err != nil {
				log.Printf("Metrics shutdown error: %v", err)
			}
		}()

		metrics, err = observe.NewMetrics(provider.MeterProvider)
		if err != nil {
			log.Fatalf("Failed to create metrics: %v", err)
		}
		scrape = provider.Handler
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	jobs := store.New(pingCtx, cfg.Redis.Addr, cfg.Redis.JobTTL)
	cancel()
	defer jobs.Close()

	srv, err := server.New(server.Config{
		Port:           cfg.Server.Port,
		Name:           serverName,
		EnableMDNS:     cfg.Discovery.Enabled,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		TargetRate:     cfg.Convert.TargetRate,
		StepDelay:      cfg.Convert.StepDelay,
	}, jobs, metrics, scrape)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}
