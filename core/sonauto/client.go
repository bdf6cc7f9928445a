package sonauto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the Sonauto generation API.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// Config contains configuration for the Sonauto client.
type Config struct {
	APIKey       string
	BaseURL      string
	Client       *http.Client
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// New creates a new Sonauto API client.
func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.sonauto.ai"
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 3 * time.Second
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = 10 * time.Minute
	}
	return &Client{
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		httpClient:   httpClient,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

type generationRequest struct {
	Prompt          string  `json:"prompt"`
	Instrumental    bool    `json:"instrumental"`
	BalanceStrength float64 `json:"balance_strength"`
	BPM             int     `json:"bpm"`
	PromptStrength  float64 `json:"prompt_strength"`
	NumSongs        int     `json:"num_songs"`
}

type generationResponse struct {
	TaskID string `json:"task_id"`
}

// Task mirrors the Sonauto task status response. SongPaths and Lyrics
// are only present on success; ErrorMessage only on failure.
type Task struct {
	TaskID       string   `json:"task_id"`
	Status       string   `json:"status"`
	SongPaths    []string `json:"song_paths"`
	Lyrics       string   `json:"lyrics"`
	Tags         []string `json:"tags"`
	ErrorMessage string   `json:"error_message"`
}

// do issues one JSON request against the API and decodes the response.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("sonauto: couldn't marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("sonauto: couldn't create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sonauto: couldn't %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("sonauto: couldn't read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMessage := string(respBody)
		if len(errMessage) > 200 {
			errMessage = errMessage[:200] + "..."
		}
		return fmt.Errorf("sonauto: %s %s returned %d: %s", method, path, resp.StatusCode, errMessage)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("sonauto: couldn't unmarshal response body (%T): %w", out, err)
		}
	}
	return nil
}

// download fetches raw bytes from a song URL.
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("sonauto: couldn't create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sonauto: couldn't download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sonauto: download %s returned %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sonauto: couldn't read download body: %w", err)
	}
	return data, nil
}
