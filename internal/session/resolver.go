package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// Resolver returns the set of renditions available for a source URL.
// Implementations perform the remote metadata call; failures of any kind
// (network, auth, parsing) wrap ErrResolutionFailed. No internal retries.
type Resolver interface {
	Resolve(ctx context.Context, sourceURL string) ([]Rendition, error)
}

// YtDlpResolver resolves catalogs by shelling out to yt-dlp with JSON output.
// The remote service may serve different catalogs depending on the presented
// client identity, so the user agent and extractor arguments are configurable.
type YtDlpResolver struct {
	Bin           string // resolver executable, default "yt-dlp"
	CookiesFile   string // Netscape-format cookie jar passed through to the resolver
	UserAgent     string
	ExtractorArgs string // e.g. "youtube:player_client=android"
}

type ytdlpFormat struct {
	Vcodec string  `json:"vcodec"`
	Acodec string  `json:"acodec"`
	Ext    string  `json:"ext"`
	Height int     `json:"height"`
	Abr    float64 `json:"abr"`
	URL    string  `json:"url"`
}

type ytdlpInfo struct {
	Formats []ytdlpFormat `json:"formats"`
}

// Resolve implements Resolver.
func (r *YtDlpResolver) Resolve(ctx context.Context, sourceURL string) ([]Rendition, error) {
	bin := r.Bin
	if bin == "" {
		bin = "yt-dlp"
	}

	args := []string{"-J", "--no-playlist", "--quiet"}
	if r.CookiesFile != "" {
		args = append(args, "--cookies", r.CookiesFile)
	}
	if r.UserAgent != "" {
		args = append(args, "--user-agent", r.UserAgent)
	}
	if r.ExtractorArgs != "" {
		args = append(args, "--extractor-args", r.ExtractorArgs)
	}
	args = append(args, sourceURL)

	out, err := exec.CommandContext(ctx, bin, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	return parseRenditions(out)
}

// parseRenditions decodes yt-dlp JSON output into the catalog. The resolver
// marks absent codecs with the literal string "none".
func parseRenditions(data []byte) ([]Rendition, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: decode metadata: %v", ErrResolutionFailed, err)
	}
	if len(info.Formats) == 0 {
		return nil, fmt.Errorf("%w: no formats found", ErrResolutionFailed)
	}

	renditions := make([]Rendition, 0, len(info.Formats))
	for _, f := range info.Formats {
		renditions = append(renditions, Rendition{
			HasVideo:     f.Vcodec != "" && f.Vcodec != "none",
			HasAudio:     f.Acodec != "" && f.Acodec != "none",
			Container:    f.Ext,
			Height:       f.Height,
			AudioBitrate: f.Abr,
			URL:          f.URL,
		})
	}
	return renditions, nil
}
