package session

import (
	"errors"
	"fmt"
	"time"
)

// Rendition is one entry from the remote catalog: a single elementary stream
// (or muxed stream) with the attributes needed for selection.
type Rendition struct {
	HasVideo     bool
	HasAudio     bool
	Container    string
	Height       int
	AudioBitrate float64
	URL          string
}

// Selection is the pair of streams the muxer will repackage: exactly one
// video-only rendition at the requested height and one audio-only rendition.
type Selection struct {
	Video Rendition
	Audio Rendition
}

// Session identifies one in-flight HLS session. Each session exclusively owns
// its workspace directory; IDs are generated fresh per request and never
// derived from input.
type Session struct {
	ID        string
	Dir       string
	CreatedAt time.Time
}

var (
	// ErrResolutionFailed is returned when the remote catalog could not be
	// obtained (network, parsing, or auth failure upstream).
	ErrResolutionFailed = errors.New("stream resolution failed")

	// ErrNoAudioStream is returned when the catalog has no audio-only
	// candidates to pick from.
	ErrNoAudioStream = errors.New("no audio-only stream available")

	// ErrWorkspaceAllocation is returned when the session's output directory
	// could not be created.
	ErrWorkspaceAllocation = errors.New("workspace allocation failed")

	// ErrSpawnFailed is returned when the muxer process could not be launched.
	ErrSpawnFailed = errors.New("muxer spawn failed")

	// ErrReadinessTimeout is returned when the playlist did not appear within
	// the poll budget. The muxer process is killed before this is surfaced.
	ErrReadinessTimeout = errors.New("HLS playlist generation failed")
)

// NoStreamError is returned when no video-only rendition matches the requested
// height exactly. It carries the height for the client-facing message.
type NoStreamError struct {
	Height int
}

func (e *NoStreamError) Error() string {
	return fmt.Sprintf("No %dp stream available", e.Height)
}
