package ffmpeg

import (
	"fmt"
	"strconv"
)

// DefaultBinary is the ffmpeg executable looked up on PATH.
const DefaultBinary = "ffmpeg"

// SnapshotParams describes a single-frame grab from a live stream.
type SnapshotParams struct {
	InputURL   string       // rtsp://localhost:8554/cam
	OutputPath string       // /tmp/screenshot_2025-01-27_10-30-00.jpg
	Quality    int          // -q:v, 2-31 (lower is better); 0 means 2
	Options    []OptionType // input options applied before -i
}

// BuildSnapshotArgs builds the ffmpeg arguments (without the binary) for a frame grab.
// Log lines are emitted with a level prefix so ParseLogLevel can classify them.
func BuildSnapshotArgs(p SnapshotParams) ([]string, error) {
	if p.InputURL == "" {
		return nil, fmt.Errorf("input URL is required")
	}
	if p.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}

	quality := p.Quality
	if quality == 0 {
		quality = 2
	}
	if quality < 2 || quality > 31 {
		return nil, fmt.Errorf("quality must be between 2 and 31, got %d", quality)
	}

	args := []string{"-hide_banner", "-loglevel", "level+warning", "-y"}
	args = append(args, InputArgs(p.Options)...)
	args = append(args,
		"-i", p.InputURL,
		"-vframes", "1",
		"-q:v", strconv.Itoa(quality),
		p.OutputPath,
	)
	return args, nil
}
