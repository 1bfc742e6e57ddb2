// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// USAGE METRICS
// =============================================================================

// Metrics is the core usage summary shown on the metrics panel.
type Metrics struct {
	// Engagement
	TotalMessages         int     `json:"totalMessages"`
	TotalSessions         int     `json:"totalSessions"`
	AvgMessagesPerSession float64 `json:"avgMessagesPerSession"`
	AvgSessionDuration    float64 `json:"avgSessionDuration"` // minutes

	// Content
	AvgWordCount      float64 `json:"avgWordCount"`
	AvgResponseLength float64 `json:"avgResponseLength"` // assistant words

	// Activity
	MessagesOverTime []DailyCount `json:"messagesOverTime"`
	MostActiveHour   int          `json:"mostActiveHour"` // 0-23
	MostActiveDay    string       `json:"mostActiveDay"`
}

// DailyCount is one bucket of the messages-over-time series.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// =============================================================================
// RETRIEVAL STATISTICS
// =============================================================================

// RetrievalStats mirrors the backend's retrieval-augmented generation
// statistics. Every field is optional on the wire.
type RetrievalStats struct {
	VectorStore VectorStoreStats `json:"vector_store"`

	TotalQueries            int     `json:"total_queries"`
	TotalDocumentsRetrieved int     `json:"total_documents_retrieved"`
	AvgDocumentsPerQuery    float64 `json:"avg_documents_per_query"`
	AvgRelevanceScore       float64 `json:"avg_relevance_score"`

	SimilarityMethodUsage SimilarityUsage `json:"similarity_method_usage"`
	TopSources            []SourceCount   `json:"top_sources"`
	RecentQueries         []QueryRecord   `json:"recent_queries"`
}

// VectorStoreStats describes the backend's document index.
type VectorStoreStats struct {
	NumDocuments       int     `json:"num_documents"`
	EmbeddingDimension *int    `json:"embedding_dimension"`
	TotalSizeMB        float64 `json:"total_size_mb"`
}

// SimilarityUsage counts queries per similarity method.
type SimilarityUsage struct {
	Cosine    int `json:"cosine"`
	Euclidean int `json:"euclidean"`
}

// SourceCount is how often a source document was retrieved.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// QueryRecord is one entry of the recent-queries log.
type QueryRecord struct {
	Timestamp  string `json:"timestamp"`
	NumResults int    `json:"num_results"`
}
