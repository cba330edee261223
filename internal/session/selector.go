package session

// videoContainer is the only container accepted for the video stream; mp4
// bitstreams can be copied into MPEG-TS segments without re-encoding.
const videoContainer = "mp4"

// Select picks exactly one video and one audio rendition from the catalog.
// Pure function, no I/O.
//
// The video pick is the first catalog-order rendition that is video-only,
// in the mp4 container, and whose height equals the requested height exactly.
// There is no nearest-match fallback; an exact miss is a hard failure.
//
// The audio pick is the audio-only rendition with the highest average bitrate
// (missing bitrate counts as zero, ties keep the first encountered).
func Select(renditions []Rendition, height int) (Selection, error) {
	var sel Selection

	foundVideo := false
	for _, r := range renditions {
		if r.HasVideo && !r.HasAudio && r.Container == videoContainer && r.Height == height {
			sel.Video = r
			foundVideo = true
			break
		}
	}
	if !foundVideo {
		return Selection{}, &NoStreamError{Height: height}
	}

	foundAudio := false
	for _, r := range renditions {
		if r.HasVideo || !r.HasAudio {
			continue
		}
		if !foundAudio || r.AudioBitrate > sel.Audio.AudioBitrate {
			sel.Audio = r
			foundAudio = true
		}
	}
	if !foundAudio {
		return Selection{}, ErrNoAudioStream
	}

	return sel, nil
}
