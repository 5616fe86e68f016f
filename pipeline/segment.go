package pipeline

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"story_video_automation/session"
)

// minClipSeconds is the floor for any generated clip duration.
const minClipSeconds = 0.1

// processSegment runs narration, prompts, images and motion for one segment
// and returns the path of the finished segment clip.
func (r *Runner) processSegment(ctx context.Context, sess *session.Session, segments map[string]string, scriptKey, segKey, voice, mode string) (string, error) {
	segDir, err := r.Store.SegmentDir(sess.ID, segKey)
	if err != nil {
		return "", err
	}
	text := segments[segKey]
	if err := os.WriteFile(filepath.Join(segDir, "segment.txt"), []byte(text), 0644); err != nil {
		return "", fmt.Errorf("write segment text: %w", err)
	}

	audioPath := filepath.Join(segDir, session.AudioFile)
	log.Printf("🎙️ Session %s: narrating %s", sess.ID, segKey)
	if err := r.Narrator.Synthesize(ctx, text, voice, audioPath); err != nil {
		return "", fmt.Errorf("narration: %w", err)
	}

	prompts := r.segmentPrompts(ctx, sess.ID, scriptKey, segKey, segments, text)
	prompt1, prompt2 := prompts.Image1.Prompt, prompts.Image2.Prompt
	if prompt1 == "" {
		prompt1 = text
	}
	if prompt2 == "" {
		prompt2 = text
	}

	// Videos mode drives a single image backend; images mode goes through the
	// fallback chain because stills are all the viewer ever sees there.
	imageGen := r.Images
	if mode == session.ModeImages {
		imageGen = r.ImagesSafe
	}
	image1 := filepath.Join(segDir, "image1.png")
	image2 := filepath.Join(segDir, "image2.png")
	log.Printf("🖼️ Session %s: generating images for %s", sess.ID, segKey)
	if err := imageGen.GenerateImage(ctx, prompt1, image1); err != nil {
		return "", fmt.Errorf("image 1: %w", err)
	}
	if err := imageGen.GenerateImage(ctx, prompt2, image2); err != nil {
		return "", fmt.Errorf("image 2: %w", err)
	}

	clipPath := filepath.Join(segDir, segKey+".mp4")
	if mode == session.ModeImages {
		if err := r.Editor.BuildSlideshow([]string{image1, image2}, audioPath, clipPath); err != nil {
			return "", fmt.Errorf("slideshow: %w", err)
		}
		return clipPath, nil
	}

	audioDur, err := r.Editor.AudioDuration(audioPath)
	if err != nil {
		return "", fmt.Errorf("probe narration: %w", err)
	}
	half := math.Max(audioDur/2, minClipSeconds)

	adjusted := make([]string, 2)
	for i, part := range []struct {
		image, prompt string
	}{
		{image1, prompt1},
		{image2, prompt2},
	} {
		rawPath := filepath.Join(segDir, fmt.Sprintf("video%d.mp4", i+1))
		label := fmt.Sprintf("video generation for %s clip %d", segKey, i+1)
		err := Attempt(label, r.MaxRetries, r.RetryWait, func() error {
			seed, genErr := r.Videos.GenerateVideo(ctx, part.image, part.prompt, half, rawPath)
			if genErr != nil {
				return genErr
			}
			log.Printf("🎞️ Session %s: %s done (seed %d)", sess.ID, label, seed)
			return nil
		})
		if err != nil {
			return "", err
		}
		adjusted[i], err = r.Editor.AdjustToDuration(rawPath, half)
		if err != nil {
			return "", fmt.Errorf("reconcile clip %d: %w", i+1, err)
		}
	}

	if err := r.Editor.CombineWithAudio(adjusted[0], adjusted[1], audioPath, clipPath); err != nil {
		return "", fmt.Errorf("combine clips: %w", err)
	}
	return clipPath, nil
}

// segmentPrompts resolves the image prompts for a segment: cached prompts
// win, a fresh generation is cached for later re-runs, and any failure falls
// back to the raw segment text so image generation can always proceed.
func (r *Runner) segmentPrompts(ctx context.Context, id, scriptKey, segKey string, segments map[string]string, text string) session.SegmentPrompts {
	if cached, ok := r.Store.CachedPrompts(id, scriptKey, segKey); ok {
		log.Printf("♻️ Session %s: reusing cached prompts for %s/%s", id, scriptKey, segKey)
		return cached
	}

	prior := map[string]session.SegmentPrompts{}
	doc := r.Store.LoadPrompts(id)
	for key, prompts := range doc[scriptKey] {
		if keyIndex(key) < keyIndex(segKey) && !prompts.Empty() {
			prior[key] = prompts
		}
	}

	prompts, err := r.Prompts.GeneratePrompts(ctx, segments, segKey, prior)
	if err != nil || prompts.Empty() {
		log.Printf("⚠️ Session %s: prompt generation failed for %s/%s, using segment text: %v", id, scriptKey, segKey, err)
		return session.SegmentPrompts{
			Image1: session.ImagePrompt{Prompt: text},
			Image2: session.ImagePrompt{Prompt: text},
		}
	}
	if err := r.Store.MergePrompts(id, scriptKey, segKey, prompts); err != nil {
		log.Printf("⚠️ Session %s: failed to cache prompts for %s/%s: %v", id, scriptKey, segKey, err)
	}
	return prompts
}
