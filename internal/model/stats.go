// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
)

// Stats is one statistics snapshot as served by the statistics endpoint.
//
// On the wire it is a single flat object: the camelCase core fields and the
// snake_case retrieval fields side by side. Either group may be missing;
// a nil pointer means the group was absent.
type Stats struct {
	Core      *Metrics
	Retrieval *RetrievalStats
}

var (
	coreMarkers      = []string{"totalMessages", "totalSessions", "messagesOverTime", "mostActiveHour"}
	retrievalMarkers = []string{"vector_store", "total_queries", "top_sources", "similarity_method_usage"}
)

// UnmarshalJSON decodes the flat wire object, setting each group only when
// at least one of its fields is present.
func (s *Stats) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	*s = Stats{}
	if hasAny(keys, coreMarkers) {
		var m Metrics
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		s.Core = &m
	}
	if hasAny(keys, retrievalMarkers) {
		var r RetrievalStats
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		s.Retrieval = &r
	}
	return nil
}

// MarshalJSON writes the present groups as one flat object.
func (s Stats) MarshalJSON() ([]byte, error) {
	merged := map[string]json.RawMessage{}
	for _, part := range []any{s.Core, s.Retrieval} {
		if isNilGroup(part) {
			continue
		}
		raw, err := json.Marshal(part)
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		for k, v := range fields {
			merged[k] = v
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(merged); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func hasAny(keys map[string]json.RawMessage, names []string) bool {
	for _, n := range names {
		if _, ok := keys[n]; ok {
			return true
		}
	}
	return false
}

func isNilGroup(v any) bool {
	switch p := v.(type) {
	case *Metrics:
		return p == nil
	case *RetrievalStats:
		return p == nil
	}
	return v == nil
}
