// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coachapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/divecoach/internal/model"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the coach API client.
type ClientConfig struct {
	// BaseURL is the backend origin (default: http://localhost:8000).
	// A trailing slash is ignored.
	BaseURL string

	// Timeout for non-streaming requests (default: 10s). Streaming requests
	// are bounded only by their context.
	Timeout time.Duration

	// Request defaults applied when a ChatRequest leaves them empty.
	Model            string
	Template         string
	SimilarityMethod string
	DeveloperMessage string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:          DefaultBaseURL,
		Timeout:          10 * time.Second,
		Model:            DefaultModel,
		Template:         TemplateDefault,
		SimilarityMethod: SimilarityCosine,
		DeveloperMessage: DefaultDeveloperMessage,
		Logger:           zerolog.Nop(),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the coaching backend over its three HTTP contracts.
// It is safe for concurrent use.
//
// Example:
//
//	client := coachapi.NewClient(&coachapi.ClientConfig{BaseURL: url})
//	err := client.StreamChat(ctx, coachapi.ChatRequest{UserMessage: "Hi"}, func(chunk string) {
//	    fmt.Print(chunk)
//	})
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	streamHTTP *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client, filling zero fields of config from
// DefaultConfig. config may be nil.
func NewClient(config *ClientConfig) *Client {
	def := DefaultConfig()
	cfg := *def
	if config != nil {
		cfg = *config
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Template == "" {
		cfg.Template = def.Template
	}
	if cfg.SimilarityMethod == "" {
		cfg.SimilarityMethod = def.SimilarityMethod
	}
	if cfg.DeveloperMessage == "" {
		cfg.DeveloperMessage = def.DeveloperMessage
	}

	c := &Client{config: cfg, logger: cfg.Logger.With().Str("component", "coachapi").Logger()}
	if cfg.HTTPClient != nil {
		c.httpClient = cfg.HTTPClient
		c.streamHTTP = cfg.HTTPClient
	} else {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
		// No client timeout on streams: a long reply is bounded by ctx.
		c.streamHTTP = &http.Client{}
	}
	return c
}

// BaseURL returns the normalized backend origin.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Model returns the default model name.
func (c *Client) Model() string {
	return c.config.Model
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChunkFunc receives each decoded piece of the reply in arrival order.
type ChunkFunc func(chunk string)

// StreamChat posts req and calls onChunk for every non-empty piece of the
// response body as it arrives. It returns nil when the body ends normally.
//
// A non-success status yields an *APIError whose Detail is the response
// body. Transport failures, cancellation and deadlines yield *ClientError.
// Chunks already delivered before an error are not retracted.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest, onChunk ChunkFunc) error {
	req = c.withDefaults(req)

	body, err := json.Marshal(req)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	start := time.Now()
	resp, err := c.streamHTTP.Do(httpReq)
	if err != nil {
		return transportError(ctx, "chat request", err)
	}
	if resp.Body == nil {
		return ErrNoBody
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	var (
		dec    textDecoder
		buf    = make([]byte, 4096)
		chunks int
		bytesN int
	)
	emit := func(s string) {
		if s == "" {
			return
		}
		chunks++
		onChunk(s)
	}

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			bytesN += n
			emit(dec.Decode(buf[:n]))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return transportError(ctx, "reading chat stream", readErr)
		}
	}
	emit(dec.Flush())

	c.logger.Debug().
		Int("chunks", chunks).
		Int("bytes", bytesN).
		Dur("elapsed", time.Since(start)).
		Msg("chat stream complete")
	return nil
}

func (c *Client) withDefaults(req ChatRequest) ChatRequest {
	if req.Model == "" {
		req.Model = c.config.Model
	}
	if req.Template == "" {
		req.Template = c.config.Template
	}
	if req.SimilarityMethod == "" {
		req.SimilarityMethod = c.config.SimilarityMethod
	}
	if req.DeveloperMessage == "" {
		req.DeveloperMessage = c.config.DeveloperMessage
	}
	return req
}

// =============================================================================
// STATISTICS
// =============================================================================

// FetchStats retrieves the statistics snapshot from GET /api/rag-stats.
func (c *Client) FetchStats(ctx context.Context) (*model.Stats, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/rag-stats", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, "stats request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var stats model.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode stats", Cause: err}
	}
	return &stats, nil
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckHealth reports whether GET /api/health answers with a success status.
func (c *Client) CheckHealth(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/health", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(ctx, "health check", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Detail: "unexpected status from backend: " + resp.Status}
	}
	return nil
}

// Healthy is CheckHealth reduced to a boolean.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.CheckHealth(ctx) == nil
}

// =============================================================================
// HELPERS
// =============================================================================

// maxErrorBody bounds how much of an error response is kept as detail.
const maxErrorBody = 64 << 10

func readAPIError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := string(data)
	if err != nil || detail == "" {
		detail = detailEmptyBody
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: detail}
}

func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxErrorBody))
	_ = r.Close()
}
