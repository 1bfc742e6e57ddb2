// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coachapi

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Prompt templates understood by the backend.
const (
	TemplateDefault  = "default"
	TemplateBeginner = "beginner"
	TemplateAdvanced = "advanced"
)

// Similarity methods understood by the backend.
const (
	SimilarityCosine    = "cosine"
	SimilarityEuclidean = "euclidean"
)

// Defaults applied by the backend when a field is omitted.
const (
	DefaultModel            = "gpt-4.1-mini"
	DefaultDeveloperMessage = "You are a helpful AI assistant."
	DefaultBaseURL          = "http://localhost:8000"
)

// Templates lists the valid template names.
var Templates = []string{TemplateDefault, TemplateBeginner, TemplateAdvanced}

// SimilarityMethods lists the valid similarity method names.
var SimilarityMethods = []string{SimilarityCosine, SimilarityEuclidean}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	UserMessage      string `json:"user_message"`
	DeveloperMessage string `json:"developer_message,omitempty"`
	Model            string `json:"model,omitempty"`
	Template         string `json:"template,omitempty"`
	SimilarityMethod string `json:"similarity_method,omitempty"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// IsValidTemplate reports whether name is a known template.
func IsValidTemplate(name string) bool {
	return contains(Templates, name)
}

// IsValidSimilarity reports whether name is a known similarity method.
func IsValidSimilarity(name string) bool {
	return contains(SimilarityMethods, name)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
