// Package transcribe turns finished videos into timed subtitle spans using a
// whisper.cpp transcription server.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"story_video_automation/media"
)

const transcribeTimeout = 10 * time.Minute

// Client calls the transcription server's multipart endpoint.
type Client struct {
	baseURL  string
	model    string
	language string
	client   *http.Client
}

func NewClient(baseURL, model, language string) *Client {
	return &Client{
		baseURL:  baseURL,
		model:    model,
		language: language,
		client:   &http.Client{Timeout: transcribeTimeout},
	}
}

type transcribeResponse struct {
	Success bool   `json:"success"`
	SRT     string `json:"srt"`
	Text    string `json:"text"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Transcribe uploads the video and returns its subtitle spans.
func (c *Client) Transcribe(ctx context.Context, videoPath string) ([]media.SubtitleSpan, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filepath.Base(videoPath))
	if err != nil {
		return nil, fmt.Errorf("create multipart: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy video: %w", err)
	}
	writer.WriteField("output_srt", "true")
	if c.model != "" {
		writer.WriteField("model", c.model)
	}
	if c.language != "" {
		writer.WriteField("language", c.language)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result transcribeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("transcription error: %s: %s", result.Error, result.Message)
	}
	if result.SRT == "" {
		return nil, fmt.Errorf("transcription returned no subtitles")
	}

	spans, err := ParseSRT(result.SRT)
	if err != nil {
		return nil, err
	}
	return spans, nil
}
