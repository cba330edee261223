package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeResolver returns a canned catalog and records the URL it was asked for.
type fakeResolver struct {
	catalog []Rendition
	err     error

	mu       sync.Mutex
	resolved []string
}

func (f *fakeResolver) Resolve(_ context.Context, sourceURL string) ([]Rendition, error) {
	f.mu.Lock()
	f.resolved = append(f.resolved, sourceURL)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.catalog, nil
}

// fakeMuxer records each spawn and optionally writes the playlist so the
// poller can observe readiness.
type fakeMuxer struct {
	writePlaylist bool
	spawnErr      error

	mu     sync.Mutex
	spawns []spawnCall
	procs  []*fakeProcess
}

type spawnCall struct {
	videoURL     string
	audioURL     string
	cookieHeader string
}

func (f *fakeMuxer) Spawn(sel Selection, sess Session, cookieHeader string) (Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spawnErr != nil {
		return nil, f.spawnErr
	}
	f.spawns = append(f.spawns, spawnCall{
		videoURL:     sel.Video.URL,
		audioURL:     sel.Audio.URL,
		cookieHeader: cookieHeader,
	})
	if f.writePlaylist {
		if err := os.WriteFile(sess.PlaylistPath(), []byte("#EXTM3U\n"), 0o644); err != nil {
			return nil, err
		}
	}
	p := &fakeProcess{}
	f.procs = append(f.procs, p)
	return p, nil
}

type fakeProcess struct {
	mu    sync.Mutex
	kills int
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kills++
	return nil
}

func (p *fakeProcess) killCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills
}

func goodCatalog() []Rendition {
	return []Rendition{
		{HasVideo: true, Container: "mp4", Height: 1080, URL: "https://cdn.example/video"},
		{HasAudio: true, AudioBitrate: 128, URL: "https://cdn.example/audio"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T, r Resolver, m Muxer, gate *Gate) *Service {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if gate == nil {
		gate = NewGate(2)
	}
	cfg := Config{CookieHeader: "SID=abc", PollAttempts: 3, PollInterval: 10 * time.Millisecond}
	return NewService(r, m, ws, gate, cfg, testLogger(), nil)
}

func TestService_Stream_success(t *testing.T) {
	resolver := &fakeResolver{catalog: goodCatalog()}
	muxer := &fakeMuxer{writePlaylist: true}
	svc := newTestService(t, resolver, muxer, nil)

	location, err := svc.Stream(context.Background(), "https://example/video?si=abc", 1080)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !strings.HasPrefix(location, "/hls/") || !strings.HasSuffix(location, "/"+PlaylistFileName) {
		t.Errorf("unexpected playlist location %q", location)
	}

	if len(resolver.resolved) != 1 || resolver.resolved[0] != "https://example/video" {
		t.Errorf("resolver should receive the query-stripped URL, got %v", resolver.resolved)
	}

	if len(muxer.spawns) != 1 {
		t.Fatalf("expected one spawn, got %d", len(muxer.spawns))
	}
	call := muxer.spawns[0]
	if call.videoURL != "https://cdn.example/video" || call.audioURL != "https://cdn.example/audio" {
		t.Errorf("muxer received wrong streams: %+v", call)
	}
	if call.cookieHeader != "SID=abc" {
		t.Errorf("muxer should receive the configured cookie header, got %q", call.cookieHeader)
	}
}

func TestService_Stream_resolution_failure(t *testing.T) {
	resolver := &fakeResolver{err: ErrResolutionFailed}
	svc := newTestService(t, resolver, &fakeMuxer{}, nil)

	_, err := svc.Stream(context.Background(), "https://example/video", 1080)
	if !errors.Is(err, ErrResolutionFailed) {
		t.Errorf("expected ErrResolutionFailed, got %v", err)
	}
}

func TestService_Stream_no_matching_resolution(t *testing.T) {
	resolver := &fakeResolver{catalog: goodCatalog()}
	svc := newTestService(t, resolver, &fakeMuxer{}, nil)

	_, err := svc.Stream(context.Background(), "https://example/video", 720)
	var noStream *NoStreamError
	if !errors.As(err, &noStream) || noStream.Height != 720 {
		t.Errorf("expected NoStreamError{720}, got %v", err)
	}
}

func TestService_Stream_spawn_failure(t *testing.T) {
	resolver := &fakeResolver{catalog: goodCatalog()}
	muxer := &fakeMuxer{spawnErr: ErrSpawnFailed}
	svc := newTestService(t, resolver, muxer, nil)

	_, err := svc.Stream(context.Background(), "https://example/video", 1080)
	if !errors.Is(err, ErrSpawnFailed) {
		t.Errorf("expected ErrSpawnFailed, got %v", err)
	}
}

func TestService_Stream_timeout_kills_process(t *testing.T) {
	resolver := &fakeResolver{catalog: goodCatalog()}
	muxer := &fakeMuxer{writePlaylist: false}
	svc := newTestService(t, resolver, muxer, nil)

	_, err := svc.Stream(context.Background(), "https://example/video", 1080)
	if !errors.Is(err, ErrReadinessTimeout) {
		t.Fatalf("expected ErrReadinessTimeout, got %v", err)
	}

	if len(muxer.procs) != 1 {
		t.Fatalf("expected one spawned process, got %d", len(muxer.procs))
	}
	if kills := muxer.procs[0].killCount(); kills != 1 {
		t.Errorf("process should be killed exactly once on timeout, got %d", kills)
	}
}

func TestService_Stream_releases_gate_on_failure(t *testing.T) {
	resolver := &fakeResolver{err: ErrResolutionFailed}
	gate := NewGate(1)
	svc := newTestService(t, resolver, &fakeMuxer{}, gate)

	_, _ = svc.Stream(context.Background(), "https://example/video", 1080)

	// The single permit must be free again after the failed session.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := gate.Acquire(ctx); err != nil {
		t.Errorf("gate permit leaked on failure path: %v", err)
	}
}

func TestService_Stream_releases_gate_on_timeout(t *testing.T) {
	resolver := &fakeResolver{catalog: goodCatalog()}
	gate := NewGate(1)
	svc := newTestService(t, resolver, &fakeMuxer{writePlaylist: false}, gate)

	_, err := svc.Stream(context.Background(), "https://example/video", 1080)
	if !errors.Is(err, ErrReadinessTimeout) {
		t.Fatalf("expected ErrReadinessTimeout, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := gate.Acquire(ctx); err != nil {
		t.Errorf("gate permit leaked on timeout path: %v", err)
	}
}

func TestStripQuery(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://example/video?si=abc&t=10", "https://example/video"},
		{"https://example/video", "https://example/video"},
		{"https://example/video?", "https://example/video"},
	}
	for _, c := range cases {
		if got := stripQuery(c.in); got != c.want {
			t.Errorf("stripQuery(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
