package media

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// durationTolerance is how far a clip may drift from its target duration
// before it gets trimmed or padded. One millisecond is below what ffmpeg can
// reliably hit anyway.
const durationTolerance = 1e-3

// Editor runs every local media operation through ffmpeg/ffprobe. The zero
// value works; fields override the encoding and subtitle defaults.
type Editor struct {
	FPS          int
	Codec        string
	Font         string
	MarginBottom int
	StrokeWidth  int
}

func (e *Editor) fps() int {
	if e.FPS > 0 {
		return e.FPS
	}
	return 24
}

func (e *Editor) codec() string {
	if e.Codec != "" {
		return e.Codec
	}
	return "libx264"
}

// AudioDuration returns the duration of an audio file in seconds.
func (e *Editor) AudioDuration(path string) (float64, error) {
	return probeDuration(path)
}

// VideoDuration returns the duration of a video file in seconds.
func (e *Editor) VideoDuration(path string) (float64, error) {
	return probeDuration(path)
}

func probeDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %v", path, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration of %s: %w", path, err)
	}
	return dur, nil
}

// probeFrameSize returns the width and height of the first video stream.
func probeFrameSize(path string) (int, int, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe %s: %v", path, err)
	}
	parts := strings.Split(strings.TrimSpace(string(out)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected frame size %q for %s", strings.TrimSpace(string(out)), path)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse width of %s: %w", path, err)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse height of %s: %w", path, err)
	}
	return width, height, nil
}

func runFFmpeg(args ...string) error {
	full := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.Command("ffmpeg", full...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %v, output: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// withSuffix inserts suffix before the file extension.
func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// writeConcatList writes an ffmpeg concat demuxer list file.
func writeConcatList(clips []string, listPath string) error {
	var b strings.Builder
	for _, clip := range clips {
		abs, err := filepath.Abs(clip)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", clip, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}
