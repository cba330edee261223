package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"hls-gateway/internal/platform/config"
	"hls-gateway/internal/platform/cors"
	"hls-gateway/internal/platform/logger"
	"hls-gateway/internal/platform/metrics"
	"hls-gateway/internal/session"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	hlsRoot := config.GetEnv("HLS_ROOT", filepath.Join(os.TempDir(), "hls_segments"))
	cookiesFile := config.GetEnv("COOKIES_FILE", "yt.txt")
	maxSessions := config.GetEnvInt("MAX_SESSIONS", session.DefaultGateCapacity)
	segmentSeconds := config.GetEnvInt("SEGMENT_SECONDS", 4)
	pollAttempts := config.GetEnvInt("POLL_ATTEMPTS", session.DefaultPollAttempts)
	pollInterval := config.GetEnvDuration("POLL_INTERVAL", session.DefaultPollInterval)
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	cookieHeader, err := session.LoadCookieHeader(cookiesFile)
	if err != nil {
		// Sessions still work against unauthenticated sources.
		log.Warn("cookie jar not loaded", "path", cookiesFile, "error", err)
	}

	retention := session.Retention{Policy: session.RetentionFullHistory}
	if config.GetEnv("RETENTION_POLICY", "full") == "window" {
		retention = session.Retention{
			Policy: session.RetentionWindow,
			Window: config.GetEnvInt("RETENTION_WINDOW", 6),
		}
	}

	workspace, err := session.NewWorkspace(hlsRoot)
	if err != nil {
		log.Error("workspace root unavailable", "root", hlsRoot, "error", err)
		os.Exit(1)
	}

	resolver := &session.YtDlpResolver{
		Bin:           config.GetEnv("RESOLVER_BIN", "yt-dlp"),
		CookiesFile:   cookiesFile,
		UserAgent:     config.GetEnv("RESOLVER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"),
		ExtractorArgs: config.GetEnv("RESOLVER_EXTRACTOR_ARGS", "youtube:player_client=android"),
	}
	muxer := &session.FFmpegMuxer{
		Bin:            config.GetEnv("MUXER_BIN", "ffmpeg"),
		SegmentSeconds: segmentSeconds,
		Retention:      retention,
	}
	gate := session.NewGate(maxSessions)
	met := metrics.New()

	svc := session.NewService(resolver, muxer, workspace, gate, session.Config{
		CookieHeader: cookieHeader,
		PollAttempts: pollAttempts,
		PollInterval: pollInterval,
	}, log, met)
	h := session.NewHandler(svc, log)

	var allowedOrigins []string
	if v := config.GetEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		allowedOrigins = strings.Split(v, ",")
	}

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(cors.Middleware(allowedOrigins))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/", h.Health)
	r.Get("/stream/", h.Stream)
	r.Handle("/hls/*", h.Segments())
	r.Method(http.MethodGet, "/metrics", met.Handler(nil))

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"hls_root", hlsRoot,
		"max_sessions", maxSessions,
		"poll_attempts", pollAttempts,
		"poll_interval", pollInterval.String(),
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
