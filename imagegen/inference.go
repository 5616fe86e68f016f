package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	inferenceBaseURL = "https://router.huggingface.co/hf-inference/models"
	inferenceTimeout = 120 * time.Second
)

// InferenceGenerator renders images through the Hugging Face serverless
// inference API. Quota-limited, so it is typically fronted by a fallback.
type InferenceGenerator struct {
	token  string
	model  string
	client *http.Client
}

func NewInferenceGenerator(token, model string) *InferenceGenerator {
	return &InferenceGenerator{
		token:  token,
		model:  model,
		client: &http.Client{Timeout: inferenceTimeout},
	}
}

// GenerateImage renders the prompt and saves the returned image bytes.
func (g *InferenceGenerator) GenerateImage(ctx context.Context, prompt, outPath string) error {
	body, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inferenceBaseURL+"/"+g.model, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if err := os.WriteFile(outPath, image, 0644); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}
