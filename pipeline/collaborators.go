package pipeline

import (
	"context"

	"story_video_automation/media"
	"story_video_automation/session"
)

// ScriptGenerator produces candidate scripts from an idea. Implementations
// return every candidate they got back, valid or not; the runner decides
// which are usable.
type ScriptGenerator interface {
	GenerateScripts(ctx context.Context, idea string) (session.ScriptSet, error)
}

// PromptGenerator turns one segment of a script into a pair of image prompts.
// The full script and the prompts already generated for earlier segments are
// passed along so consecutive segments stay visually coherent.
type PromptGenerator interface {
	GeneratePrompts(ctx context.Context, script map[string]string, segKey string, prior map[string]session.SegmentPrompts) (session.SegmentPrompts, error)
}

// Narrator synthesizes narration audio for one segment.
type Narrator interface {
	Synthesize(ctx context.Context, text, voice, outPath string) error
}

// ImageGenerator renders one image from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, outPath string) error
}

// VideoGenerator animates a still image into a short clip of roughly the
// requested duration. The returned seed identifies the generation for
// debugging; exact duration is not guaranteed and is reconciled afterwards.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, imagePath, prompt string, seconds float64, outPath string) (seed int64, err error)
}

// Transcriber produces timed subtitle spans for a finished video.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string) ([]media.SubtitleSpan, error)
}

// MediaEditor covers every local ffmpeg operation the pipeline needs.
type MediaEditor interface {
	AudioDuration(path string) (float64, error)
	AdjustToDuration(videoPath string, target float64) (string, error)
	CombineWithAudio(firstClip, secondClip, audioPath, outPath string) error
	BuildSlideshow(imagePaths []string, audioPath, outPath string) error
	Concatenate(clips []string, outPath string) error
	BurnSubtitles(videoPath string, spans []media.SubtitleSpan, outPath string) error
}
