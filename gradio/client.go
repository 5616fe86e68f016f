// Package gradio is a minimal client for Hugging Face Spaces exposing the
// Gradio API: file upload, named endpoint calls with server-sent event
// results, and output file download.
package gradio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Client talks to one Space.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a client for a Space identified as "owner/name". Hosted
// generation can take minutes, so the HTTP client carries no overall timeout;
// pass a context to bound individual calls.
func NewClient(space, token string) *Client {
	return &Client{
		baseURL: spaceURL(space),
		token:   token,
		client:  &http.Client{},
	}
}

// spaceURL derives the *.hf.space hostname from a Space identifier.
func spaceURL(space string) string {
	host := strings.ToLower(space)
	for _, old := range []string{"/", "_", "."} {
		host = strings.ReplaceAll(host, old, "-")
	}
	return "https://" + host + ".hf.space"
}

// FileRef is how Gradio passes files across the API.
type FileRef struct {
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
	Meta struct {
		Type string `json:"_type"`
	} `json:"meta"`
}

// NewFileRef wraps a server-side path previously returned by UploadFile.
func NewFileRef(serverPath string) FileRef {
	ref := FileRef{Path: serverPath}
	ref.Meta.Type = "gradio.FileData"
	return ref
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// UploadFile pushes a local file to the Space and returns the server path to
// reference it with in a call.
func (c *Client) UploadFile(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", filepath.Base(localPath))
	if err != nil {
		return "", fmt.Errorf("create multipart: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/gradio_api/upload", &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload to Space: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var paths []string
	if err := json.NewDecoder(resp.Body).Decode(&paths); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("upload returned no paths")
	}
	return paths[0], nil
}

// Predict invokes a named endpoint and waits for its result. The returned
// slice holds the endpoint's raw output values in order.
func (c *Client) Predict(ctx context.Context, apiName string, data []any) ([]json.RawMessage, error) {
	eventID, err := c.call(ctx, apiName, data)
	if err != nil {
		return nil, err
	}
	return c.result(ctx, apiName, eventID)
}

func (c *Client) call(ctx context.Context, apiName string, data []any) (string, error) {
	payload, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return "", fmt.Errorf("marshalling call: %w", err)
	}

	url := c.baseURL + "/gradio_api/call/" + strings.TrimPrefix(apiName, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", apiName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("call %s failed with status %d: %s", apiName, resp.StatusCode, string(respBody))
	}

	var call struct {
		EventID string `json:"event_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return "", fmt.Errorf("decode call response: %w", err)
	}
	if call.EventID == "" {
		return "", fmt.Errorf("call %s returned no event id", apiName)
	}
	return call.EventID, nil
}

// result streams the server-sent events for one call until it completes.
func (c *Client) result(ctx context.Context, apiName, eventID string) ([]json.RawMessage, error) {
	url := c.baseURL + "/gradio_api/call/" + strings.TrimPrefix(apiName, "/") + "/" + eventID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream result of %s: %w", apiName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("result stream failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	event := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "complete":
				var out []json.RawMessage
				if err := json.Unmarshal([]byte(data), &out); err != nil {
					return nil, fmt.Errorf("decode result: %w", err)
				}
				return out, nil
			case "error":
				return nil, fmt.Errorf("%s failed on the Space: %s", apiName, data)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read result stream: %w", err)
	}
	return nil, fmt.Errorf("result stream for %s ended without completion", apiName)
}

// DownloadFile fetches an output file produced by the Space.
func (c *Client) DownloadFile(ctx context.Context, ref FileRef, outPath string) error {
	url := ref.URL
	if url == "" {
		url = c.baseURL + "/gradio_api/file=" + ref.Path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", ref.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("save %s: %w", outPath, err)
	}
	return nil
}
