// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coachapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// chunkedHandler writes each part separately and flushes between them.
func chunkedHandler(parts ...[]byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher, _ := w.(http.Flusher)
		for _, p := range parts {
			_, _ = w.Write(p)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(&ClientConfig{BaseURL: srv.URL + "/"})
}

func collect(t *testing.T, c *Client, req ChatRequest) (string, []string, error) {
	t.Helper()
	var chunks []string
	err := c.StreamChat(context.Background(), req, func(s string) {
		chunks = append(chunks, s)
	})
	return strings.Join(chunks, ""), chunks, err
}

// =============================================================================
// STREAM CHAT
// =============================================================================

func TestStreamChat_AccumulatesChunks(t *testing.T) {
	srv := httptest.NewServer(chunkedHandler([]byte("Hel"), []byte("lo"), []byte(" there"), []byte("!")))
	defer srv.Close()

	text, chunks, err := collect(t, newTestClient(srv), ChatRequest{UserMessage: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", text)
	assert.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, c, "empty chunks are never delivered")
	}
}

func TestStreamChat_SplitMultibyteCharacter(t *testing.T) {
	fin := []byte("🤿") // 4 bytes
	srv := httptest.NewServer(chunkedHandler([]byte("dive "), fin[:1], fin[1:3], append(fin[3:], []byte(" deep")...)))
	defer srv.Close()

	text, chunks, err := collect(t, newTestClient(srv), ChatRequest{UserMessage: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "dive 🤿 deep", text)
	for _, c := range chunks {
		assert.NotContains(t, c, "\uFFFD")
	}
}

func TestStreamChat_SendsDefaults(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, _, err := collect(t, newTestClient(srv), ChatRequest{UserMessage: "How deep is too deep?", Template: TemplateBeginner})
	require.NoError(t, err)
	assert.Equal(t, "How deep is too deep?", got.UserMessage)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, TemplateBeginner, got.Template)
	assert.Equal(t, SimilarityCosine, got.SimilarityMethod)
	assert.Equal(t, DefaultDeveloperMessage, got.DeveloperMessage)
}

func TestStreamChat_ErrorBodyIsDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail json", http.StatusInternalServerError, `{"detail":"OPENAI_API_KEY environment variable is not set"}`, `{"detail":"OPENAI_API_KEY environment variable is not set"}`},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down"},
		{"empty body", http.StatusInternalServerError, "", "Failed to get response from API"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			text, _, err := collect(t, newTestClient(srv), ChatRequest{UserMessage: "hi"})
			require.Error(t, err)
			assert.Empty(t, text)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestStreamChat_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(&ClientConfig{BaseURL: url})
	err := c.StreamChat(context.Background(), ChatRequest{UserMessage: "hi"}, func(string) {})
	require.Error(t, err)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrTypeConnection, ce.Type)
	assert.False(t, IsCanceled(err))
}

func TestStreamChat_CancelMidStream(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	var got strings.Builder
	err := newTestClient(srv).StreamChat(ctx, ChatRequest{UserMessage: "hi"}, func(s string) {
		got.WriteString(s)
		cancel()
	})

	require.Error(t, err)
	assert.True(t, IsCanceled(err))
	assert.Equal(t, "partial", got.String())
}

func TestStreamChat_Deadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := newTestClient(srv).StreamChat(ctx, ChatRequest{UserMessage: "hi"}, func(string) {})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsCanceled(err))
}

// =============================================================================
// DECODER
// =============================================================================

func TestTextDecoder(t *testing.T) {
	var d textDecoder
	e := []byte("é") // 2 bytes

	assert.Equal(t, "caf", d.Decode([]byte("caf")))
	assert.Equal(t, "", d.Decode(e[:1]))
	assert.Equal(t, "é!", d.Decode(append(e[1:], '!')))
	assert.Equal(t, "", d.Flush())

	assert.Equal(t, "a\uFFFDb", d.Decode([]byte{'a', 0xff, 'b'}))

	assert.Equal(t, "", d.Decode(e[:1]))
	assert.Equal(t, "\uFFFD", d.Flush(), "truncated trailing character")
}

// =============================================================================
// STATS AND HEALTH
// =============================================================================

func TestFetchStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rag-stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"vector_store":{"num_documents":3,"total_size_mb":0.1},"total_queries":7,
			"avg_relevance_score":0.5,"top_sources":[{"source":"tables.md","count":4}]}`))
	}))
	defer srv.Close()

	stats, err := newTestClient(srv).FetchStats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.Core)
	require.NotNil(t, stats.Retrieval)
	assert.Equal(t, 7, stats.Retrieval.TotalQueries)
	assert.Equal(t, "tables.md", stats.Retrieval.TopSources[0].Source)
}

func TestFetchStats_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchStats(context.Background())
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrTypeInvalidResponse, ce.Type)
}

func TestCheckHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	assert.True(t, c.Healthy(context.Background()))

	healthy.Store(false)
	err := c.CheckHealth(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultModel, c.Model())

	c = NewClient(&ClientConfig{BaseURL: "http://coach.local:9000///"})
	assert.Equal(t, "http://coach.local:9000", c.BaseURL())
}

func TestValidators(t *testing.T) {
	assert.True(t, IsValidTemplate("advanced"))
	assert.False(t, IsValidTemplate("expert"))
	assert.True(t, IsValidSimilarity("euclidean"))
	assert.False(t, IsValidSimilarity("dot"))
}
