// Package imagegen renders still images from text prompts through hosted
// Hugging Face backends.
package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"story_video_automation/gradio"
)

// Generator renders one image from a text prompt.
type Generator interface {
	GenerateImage(ctx context.Context, prompt, outPath string) error
}

// Generation parameters for the fast Qwen image Space.
const (
	spaceAPIName       = "/infer"
	spaceAspectRatio   = "1:1"
	spaceGuidance      = 1.0
	spaceSteps         = 5
	spacePromptEnhance = true
)

// SpaceGenerator drives a Gradio text-to-image Space.
type SpaceGenerator struct {
	client *gradio.Client
}

func NewSpaceGenerator(space, token string) *SpaceGenerator {
	return &SpaceGenerator{client: gradio.NewClient(space, token)}
}

// GenerateImage renders the prompt and saves the image to outPath.
func (g *SpaceGenerator) GenerateImage(ctx context.Context, prompt, outPath string) error {
	out, err := g.client.Predict(ctx, spaceAPIName, []any{
		prompt,
		0,    // seed
		true, // randomize seed
		spaceAspectRatio,
		spaceGuidance,
		spaceSteps,
		spacePromptEnhance,
	})
	if err != nil {
		return err
	}
	if len(out) < 2 {
		return fmt.Errorf("unexpected image result with %d values", len(out))
	}

	var ref gradio.FileRef
	if err := json.Unmarshal(out[0], &ref); err != nil {
		return fmt.Errorf("decode image reference: %w", err)
	}
	var usedSeed int64
	if err := json.Unmarshal(out[1], &usedSeed); err != nil {
		log.Printf("⚠️ Could not decode image seed: %v", err)
	} else {
		log.Printf("🖼️ Image generated (seed %d)", usedSeed)
	}

	return g.client.DownloadFile(ctx, ref, outPath)
}
