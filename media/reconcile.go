package media

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

type adjustment int

const (
	adjustNone adjustment = iota
	adjustTrim
	adjustPad
)

// planAdjustment decides how to bring a clip of duration actual to the
// target. Within tolerance nothing happens; longer clips are trimmed to the
// target, shorter ones are padded by the returned amount.
func planAdjustment(actual, target float64) (adjustment, float64) {
	diff := actual - target
	if math.Abs(diff) <= durationTolerance {
		return adjustNone, 0
	}
	if diff > 0 {
		return adjustTrim, target
	}
	return adjustPad, -diff
}

// AdjustToDuration reconciles a generated clip with the duration the
// narration demands. Short clips are extended with a freeze frame of the last
// frame rather than slowed down, so motion keeps its original pace. The
// result carries no audio; narration is attached later. Returns the path of
// the adjusted clip, which is the input path when no work was needed.
func (e *Editor) AdjustToDuration(videoPath string, target float64) (string, error) {
	actual, err := e.VideoDuration(videoPath)
	if err != nil {
		return "", err
	}

	plan, amount := planAdjustment(actual, target)
	switch plan {
	case adjustNone:
		return videoPath, nil

	case adjustTrim:
		out := withSuffix(videoPath, "_trimmed")
		err := runFFmpeg(
			"-i", videoPath,
			"-t", formatSeconds(target),
			"-an",
			"-c:v", e.codec(),
			"-pix_fmt", "yuv420p",
			out,
		)
		if err != nil {
			return "", fmt.Errorf("trim %s: %w", videoPath, err)
		}
		return out, nil

	default:
		return e.padWithFreeze(videoPath, actual, amount)
	}
}

// padWithFreeze extends a clip by freezing its last frame. The frame is
// sampled one frame-duration before the end so the seek never lands past the
// final timestamp.
func (e *Editor) padWithFreeze(videoPath string, actual, amount float64) (string, error) {
	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	framePath := base + "_lastframe.png"
	freezePath := base + "_freeze.mp4"
	out := withSuffix(videoPath, "_padded")

	sampleAt := math.Max(actual-1.0/float64(e.fps()), 0)
	err := runFFmpeg(
		"-ss", formatSeconds(sampleAt),
		"-i", videoPath,
		"-vframes", "1",
		framePath,
	)
	if err != nil {
		return "", fmt.Errorf("extract last frame of %s: %w", videoPath, err)
	}

	err = runFFmpeg(
		"-loop", "1",
		"-i", framePath,
		"-t", formatSeconds(amount),
		"-r", fmt.Sprint(e.fps()),
		"-an",
		"-c:v", e.codec(),
		"-pix_fmt", "yuv420p",
		freezePath,
	)
	if err != nil {
		return "", fmt.Errorf("render freeze frame: %w", err)
	}

	err = runFFmpeg(
		"-i", videoPath,
		"-i", freezePath,
		"-filter_complex", "[0:v][1:v]concat=n=2:v=1:a=0[v]",
		"-map", "[v]",
		"-r", fmt.Sprint(e.fps()),
		"-an",
		"-c:v", e.codec(),
		"-pix_fmt", "yuv420p",
		out,
	)
	if err != nil {
		return "", fmt.Errorf("pad %s: %w", videoPath, err)
	}
	return out, nil
}
