package ffmpeg

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildSnapshotArgs(t *testing.T) {
	args, err := BuildSnapshotArgs(SnapshotParams{
		InputURL:   "rtsp://localhost:8554/cam",
		OutputPath: "/tmp/screenshot_2025-01-27_10-30-00.jpg",
		Quality:    2,
	})
	if err != nil {
		t.Fatalf("BuildSnapshotArgs failed: %v", err)
	}

	expected := []string{
		"-hide_banner", "-loglevel", "level+warning", "-y",
		"-i", "rtsp://localhost:8554/cam",
		"-vframes", "1",
		"-q:v", "2",
		"/tmp/screenshot_2025-01-27_10-30-00.jpg",
	}
	if !reflect.DeepEqual(args, expected) {
		t.Errorf("args mismatch\nexpected: %v\n     got: %v", expected, args)
	}
}

func TestBuildSnapshotArgsDefaultQuality(t *testing.T) {
	args, err := BuildSnapshotArgs(SnapshotParams{InputURL: "rtsp://cam", OutputPath: "out.jpg"})
	if err != nil {
		t.Fatalf("BuildSnapshotArgs failed: %v", err)
	}
	if !strings.Contains(strings.Join(args, " "), "-q:v 2") {
		t.Errorf("expected default quality 2, got %v", args)
	}
}

func TestBuildSnapshotArgsInputOptionsPrecedeInput(t *testing.T) {
	args, err := BuildSnapshotArgs(SnapshotParams{
		InputURL:   "rtsp://cam",
		OutputPath: "out.jpg",
		Options:    []OptionType{OptionRTSPOverTCP, OptionGeneratePTS},
	})
	if err != nil {
		t.Fatalf("BuildSnapshotArgs failed: %v", err)
	}

	joined := strings.Join(args, " ")
	inputIdx := strings.Index(joined, "-i rtsp://cam")
	for _, want := range []string{"-rtsp_transport tcp", "-fflags +genpts"} {
		idx := strings.Index(joined, want)
		if idx == -1 {
			t.Errorf("expected %q in %q", want, joined)
			continue
		}
		if idx > inputIdx {
			t.Errorf("%q should come before -i in %q", want, joined)
		}
	}
}

func TestBuildSnapshotArgsValidation(t *testing.T) {
	tests := []struct {
		name   string
		params SnapshotParams
		errMsg string
	}{
		{"missing input", SnapshotParams{OutputPath: "out.jpg"}, "input URL"},
		{"missing output", SnapshotParams{InputURL: "rtsp://cam"}, "output path"},
		{"quality too low", SnapshotParams{InputURL: "rtsp://cam", OutputPath: "out.jpg", Quality: 1}, "quality"},
		{"quality too high", SnapshotParams{InputURL: "rtsp://cam", OutputPath: "out.jpg", Quality: 32}, "quality"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSnapshotArgs(tt.params)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}
