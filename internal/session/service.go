package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"hls-gateway/internal/platform/metrics"
)

// Config carries the per-deployment knobs of the streaming pipeline.
type Config struct {
	// CookieHeader is the immutable Cookie header value passed to the muxer
	// for both input fetches. Loaded once at startup.
	CookieHeader string

	// PollAttempts and PollInterval bound the readiness wait.
	// Zero values fall back to the package defaults (20 × 500ms).
	PollAttempts int
	PollInterval time.Duration
}

// Service composes resolver, selector, workspace, muxer, poller, and gate into
// the streaming pipeline. Each request is a fresh, independent instance; no
// state is shared across sessions.
type Service struct {
	resolver  Resolver
	muxer     Muxer
	workspace *Workspace
	gate      *Gate
	cfg       Config
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// NewService wires the pipeline. Metrics may be nil to disable metric
// recording (e.g. in tests).
func NewService(r Resolver, m Muxer, ws *Workspace, gate *Gate, cfg Config, log *slog.Logger, met *metrics.Metrics) *Service {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = DefaultPollAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Service{resolver: r, muxer: m, workspace: ws, gate: gate, cfg: cfg, log: log, metrics: met}
}

// Stream runs one session end to end: resolve the catalog, select streams,
// allocate a workspace, spawn the muxer, and wait for the playlist. On
// success it returns the playlist location for the redirect. Every failure
// path releases the admission permit, and failures after spawn kill the
// subprocess before returning.
func (s *Service) Stream(ctx context.Context, rawURL string, height int) (string, error) {
	if err := s.gate.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.gate.Release()

	if s.metrics != nil {
		s.metrics.SessionStarted()
		defer s.metrics.SessionEnded()
	}

	location, err := s.stream(ctx, rawURL, height)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncSessionFailures()
		}
		return "", err
	}
	if s.metrics != nil {
		s.metrics.IncSessionsStarted()
	}
	return location, nil
}

func (s *Service) stream(ctx context.Context, rawURL string, height int) (string, error) {
	sourceURL := stripQuery(rawURL)

	renditions, err := s.resolver.Resolve(ctx, sourceURL)
	if err != nil {
		s.log.Error("catalog resolution failed", slog.String("url", sourceURL), slog.String("error", err.Error()))
		return "", err
	}

	sel, err := Select(renditions, height)
	if err != nil {
		s.log.Info("stream selection failed",
			slog.String("url", sourceURL),
			slog.Int("resolution", height),
			slog.String("error", err.Error()))
		return "", err
	}

	sess, err := s.workspace.Allocate()
	if err != nil {
		s.log.Error("workspace allocation failed", slog.String("error", err.Error()))
		return "", err
	}

	proc, err := s.muxer.Spawn(sel, sess, s.cfg.CookieHeader)
	if err != nil {
		s.log.Error("muxer spawn failed",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()))
		return "", err
	}

	if err := AwaitPlaylist(ctx, sess.PlaylistPath(), s.cfg.PollAttempts, s.cfg.PollInterval); err != nil {
		// Kill before reporting so the failure path never leaks a muxer.
		if killErr := proc.Kill(); killErr != nil {
			s.log.Error("muxer kill failed", slog.String("session_id", sess.ID), slog.String("error", killErr.Error()))
		}
		if s.metrics != nil {
			s.metrics.IncSessionTimeouts()
		}
		s.log.Error("playlist never became ready",
			slog.String("session_id", sess.ID),
			slog.Int("attempts", s.cfg.PollAttempts))
		return "", err
	}

	s.log.Info("session ready",
		slog.String("session_id", sess.ID),
		slog.Int("resolution", height),
		slog.Float64("audio_bitrate", sel.Audio.AudioBitrate))

	return "/hls/" + sess.ID + "/" + PlaylistFileName, nil
}

// stripQuery trims the query-string suffix from a source URL; the query
// portion is not meaningful to resolution.
func stripQuery(raw string) string {
	if i := strings.Index(raw, "?"); i >= 0 {
		return raw[:i]
	}
	return raw
}
