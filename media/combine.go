package media

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// CombineWithAudio joins the two half-clips of a segment and lays the
// narration over them. The result is clamped just under the shorter of the
// two tracks so neither frozen video nor truncated audio trails at the end;
// the clamp only ever shrinks.
func (e *Editor) CombineWithAudio(firstClip, secondClip, audioPath, outPath string) error {
	merged := withSuffix(outPath, "_video")
	err := runFFmpeg(
		"-i", firstClip,
		"-i", secondClip,
		"-filter_complex", "[0:v][1:v]concat=n=2:v=1:a=0[v]",
		"-map", "[v]",
		"-r", fmt.Sprint(e.fps()),
		"-an",
		"-c:v", e.codec(),
		"-pix_fmt", "yuv420p",
		merged,
	)
	if err != nil {
		return fmt.Errorf("concat segment clips: %w", err)
	}
	defer os.Remove(merged)

	videoDur, err := e.VideoDuration(merged)
	if err != nil {
		return err
	}
	audioDur, err := e.AudioDuration(audioPath)
	if err != nil {
		return err
	}
	target := math.Max(math.Min(videoDur, audioDur)-durationTolerance, 0)

	err = runFFmpeg(
		"-i", merged,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-t", formatSeconds(target),
		"-c:v", e.codec(),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("attach narration: %w", err)
	}
	return nil
}

// Concatenate joins finished segment clips into one video, re-encoding so
// clips from different generation backends line up.
func (e *Editor) Concatenate(clips []string, outPath string) error {
	if len(clips) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}
	listPath := filepath.Join(filepath.Dir(outPath), "concat_list.txt")
	if err := writeConcatList(clips, listPath); err != nil {
		return err
	}
	defer os.Remove(listPath)

	err := runFFmpeg(
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-r", fmt.Sprint(e.fps()),
		"-c:v", e.codec(),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("concatenate clips: %w", err)
	}
	return nil
}
