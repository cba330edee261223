package session

import (
	"fmt"
	"os/exec"
	"strconv"
)

// RetentionPolicy controls how the muxer treats old segments in the playlist.
type RetentionPolicy int

const (
	// RetentionFullHistory keeps every segment in the playlist while deleting
	// old segment files from disk (rolling delete, append-only list).
	RetentionFullHistory RetentionPolicy = iota

	// RetentionWindow keeps only the most recent Window segments in the
	// playlist and deletes the rest.
	RetentionWindow
)

// Retention is the playlist retention knob passed to the muxer.
// Window is only meaningful with RetentionWindow.
type Retention struct {
	Policy RetentionPolicy
	Window int
}

func (r Retention) flags() []string {
	if r.Policy == RetentionWindow {
		w := r.Window
		if w <= 0 {
			w = 6
		}
		return []string{"-hls_list_size", strconv.Itoa(w), "-hls_flags", "delete_segments"}
	}
	return []string{"-hls_list_size", "0", "-hls_flags", "delete_segments+append_list"}
}

// Process is the handle to a running muxer. Kill is forceful and must be safe
// to call after the process has already exited.
type Process interface {
	Kill() error
}

// Muxer launches the external transcode/remux process for a selection.
// The process runs detached from the request lifecycle: it keeps writing
// segments after the handler returns, and self-terminates when its inputs
// are exhausted.
type Muxer interface {
	Spawn(sel Selection, sess Session, cookieHeader string) (Process, error)
}

// FFmpegMuxer repackages the selected streams into an HLS playlist plus
// segments using stream copy (no decoding), which is why sessions are fast
// and CPU-cheap.
type FFmpegMuxer struct {
	Bin            string // muxer executable, default "ffmpeg"
	SegmentSeconds int    // target segment duration, default 4
	Retention      Retention
}

// Spawn implements Muxer. Launch failure wraps ErrSpawnFailed; there is no
// retry. The returned handle is only used for kill-on-timeout.
func (m *FFmpegMuxer) Spawn(sel Selection, sess Session, cookieHeader string) (Process, error) {
	bin := m.Bin
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.Command(bin, m.args(sel, sess, cookieHeader)...)
	cmd.Dir = sess.Dir
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	// Reap the exit status so finished muxers do not linger as zombies.
	go func() { _ = cmd.Wait() }()

	return &ffmpegProcess{cmd: cmd}, nil
}

// args builds the muxer invocation. The fetch URLs are often short-lived and
// authenticated, so each input carries the session cookie header.
func (m *FFmpegMuxer) args(sel Selection, sess Session, cookieHeader string) []string {
	segSeconds := m.SegmentSeconds
	if segSeconds <= 0 {
		segSeconds = 4
	}

	var header []string
	if cookieHeader != "" {
		header = []string{"-headers", "Cookie: " + cookieHeader + "\r\n"}
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, header...)
	args = append(args, "-i", sel.Video.URL)
	args = append(args, header...)
	args = append(args, "-i", sel.Audio.URL)
	args = append(args,
		"-c:v", "copy",
		"-c:a", "copy",
		"-f", "hls",
		"-hls_time", strconv.Itoa(segSeconds),
	)
	args = append(args, m.Retention.flags()...)
	args = append(args,
		"-hls_segment_filename", sess.SegmentPattern(),
		sess.PlaylistPath(),
	)
	return args
}

type ffmpegProcess struct {
	cmd *exec.Cmd
}

// Kill implements Process. Errors from killing an already-exited process are
// swallowed: by then the outcome we want is already true.
func (p *ffmpegProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && p.cmd.ProcessState == nil {
		return err
	}
	return nil
}
