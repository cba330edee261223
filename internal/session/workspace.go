package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// PlaylistFileName is the playlist the muxer writes inside each session
	// directory; its appearance is the readiness signal.
	PlaylistFileName = "index.m3u8"

	// SegmentFilePattern is the muxer's segment naming template.
	SegmentFilePattern = "seg_%03d.ts"
)

// Workspace allocates one output directory per session under a fixed root.
// The root doubles as the static-serving directory for finished segments, so
// session directories are retained after the request completes.
type Workspace struct {
	Root string
}

// NewWorkspace creates the root directory if needed and returns the manager.
func NewWorkspace(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root %s: %w", root, err)
	}
	return &Workspace{Root: root}, nil
}

// Allocate generates a fresh session ID and creates its directory.
// IDs are random 128-bit tokens, so collisions are not a live concern;
// MkdirAll keeps creation defensive regardless.
func (w *Workspace) Allocate() (Session, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	dir := filepath.Join(w.Root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrWorkspaceAllocation, err)
	}
	return Session{ID: id, Dir: dir, CreatedAt: time.Now().UTC()}, nil
}

// PlaylistPath returns the absolute path of the session's playlist file.
func (s Session) PlaylistPath() string {
	return filepath.Join(s.Dir, PlaylistFileName)
}

// SegmentPattern returns the muxer's segment output template for the session.
func (s Session) SegmentPattern() string {
	return filepath.Join(s.Dir, SegmentFilePattern)
}
