// Package videogen animates still images into short clips through a hosted
// image-to-video Space.
package videogen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"story_video_automation/gradio"
)

// Generation parameters for the Wan 2.2 image-to-video Space.
const (
	videoAPIName   = "/generate_video"
	videoSteps     = 4
	videoGuidance  = 1.0
	videoGuidance2 = 1.0
	videoBaseSeed  = 42
)

// Client drives the image-to-video endpoint of a Gradio Space.
type Client struct {
	space *gradio.Client
}

func NewClient(space, token string) *Client {
	return &Client{space: gradio.NewClient(space, token)}
}

// GenerateVideo uploads the image, requests a clip of roughly the given
// duration and downloads the result to outPath. The seed the Space actually
// used is returned for debugging; the clip's real duration is reconciled
// downstream.
func (c *Client) GenerateVideo(ctx context.Context, imagePath, prompt string, seconds float64, outPath string) (int64, error) {
	serverPath, err := c.space.UploadFile(ctx, imagePath)
	if err != nil {
		return 0, err
	}

	out, err := c.space.Predict(ctx, videoAPIName, []any{
		gradio.NewFileRef(serverPath),
		prompt,
		videoSteps,
		"", // negative prompt
		seconds,
		videoGuidance,
		videoGuidance2,
		videoBaseSeed,
		true, // randomize seed
	})
	if err != nil {
		return 0, err
	}
	if len(out) < 2 {
		return 0, fmt.Errorf("unexpected video result with %d values", len(out))
	}

	var result struct {
		Video gradio.FileRef `json:"video"`
	}
	if err := json.Unmarshal(out[0], &result); err != nil {
		return 0, fmt.Errorf("decode video reference: %w", err)
	}
	if result.Video.Path == "" && result.Video.URL == "" {
		return 0, fmt.Errorf("space returned no video file")
	}
	var usedSeed int64
	if err := json.Unmarshal(out[1], &usedSeed); err != nil {
		log.Printf("⚠️ Could not decode video seed: %v", err)
	}

	if err := c.space.DownloadFile(ctx, result.Video, outPath); err != nil {
		return 0, err
	}
	return usedSeed, nil
}
