package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// minSlideSeconds is the shortest a single slide may stay on screen.
	minSlideSeconds = 0.1
	slideWidth      = 1280
	slideHeight     = 720
	// slideZoomEnd is the zoom factor reached at the end of each slide; the
	// zoom ramps linearly from 1.0.
	slideZoomEnd = 1.17
)

// slideDurations splits the narration time evenly across the slides. The
// last slide absorbs floating point drift so the total matches exactly, and
// no slide goes below the minimum.
func slideDurations(total float64, count int) []float64 {
	if count <= 0 {
		return nil
	}
	each := total / float64(count)
	durs := make([]float64, count)
	sum := 0.0
	for i := 0; i < count-1; i++ {
		durs[i] = each
		sum += each
	}
	durs[count-1] = total - sum
	for i := range durs {
		if durs[i] < minSlideSeconds {
			durs[i] = minSlideSeconds
		}
	}
	return durs
}

// BuildSlideshow renders a segment clip from still images: each image gets an
// equal share of the narration with a slow linear zoom, then the narration is
// attached. This is the cheap alternative to animated clips.
func (e *Editor) BuildSlideshow(imagePaths []string, audioPath, outPath string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no images for slideshow")
	}
	total, err := e.AudioDuration(audioPath)
	if err != nil {
		return err
	}
	durs := slideDurations(total, len(imagePaths))

	workDir := filepath.Dir(outPath)
	slides := make([]string, len(imagePaths))
	for i, img := range imagePaths {
		slide := filepath.Join(workDir, fmt.Sprintf("slide%d.mp4", i+1))
		if err := e.renderSlide(img, durs[i], slide); err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
		slides[i] = slide
	}
	defer func() {
		for _, s := range slides {
			os.Remove(s)
		}
	}()

	silent := withSuffix(outPath, "_silent")
	listPath := filepath.Join(workDir, "slides_list.txt")
	if err := writeConcatList(slides, listPath); err != nil {
		return err
	}
	defer os.Remove(listPath)
	defer os.Remove(silent)

	err = runFFmpeg(
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", e.codec(),
		"-pix_fmt", "yuv420p",
		"-an",
		silent,
	)
	if err != nil {
		return fmt.Errorf("concat slides: %w", err)
	}

	err = runFFmpeg(
		"-i", silent,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-t", formatSeconds(total),
		"-c:v", "copy",
		"-c:a", "aac",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("attach narration to slideshow: %w", err)
	}
	return nil
}

// renderSlide turns one still into a clip with a linear zoom from 1.0 to
// slideZoomEnd over its duration.
func (e *Editor) renderSlide(imagePath string, duration float64, outPath string) error {
	frames := int(duration * float64(e.fps()))
	if frames < 1 {
		frames = 1
	}
	zoomStep := (slideZoomEnd - 1.0) / float64(frames)
	filter := strings.Join([]string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", slideWidth*2, slideHeight*2),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", slideWidth*2, slideHeight*2),
		fmt.Sprintf("zoompan=z='1+%0.6f*on':d=%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=%dx%d:fps=%d",
			zoomStep, frames, slideWidth, slideHeight, e.fps()),
	}, ",")

	err := runFFmpeg(
		"-loop", "1",
		"-i", imagePath,
		"-t", formatSeconds(duration),
		"-vf", filter,
		"-r", fmt.Sprint(e.fps()),
		"-an",
		"-c:v", e.codec(),
		"-pix_fmt", "yuv420p",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("render slide from %s: %w", imagePath, err)
	}
	return nil
}
