// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/divecoach/internal/coachapi"
)

// Responder produces the reply for a validated chat request.
type Responder interface {
	Respond(ctx context.Context, req coachapi.ChatRequest) (Reply, error)
}

// Reply is a complete coaching answer and the passages it cites.
type Reply struct {
	Text string
	Hits []Hit
}

// =============================================================================
// CANNED COACH
// =============================================================================

type tone struct {
	opening string
	closing string
}

var tones = map[string]tone{
	coachapi.TemplateDefault: {
		opening: "Here is what the training material says.",
		closing: "Safety first: never dive alone.",
	},
	coachapi.TemplateBeginner: {
		opening: "Great question! Let's take it step by step.",
		closing: "Practice this with a certified instructor before trying it in open water.",
	},
	coachapi.TemplateAdvanced: {
		opening: "Here is the technical picture.",
		closing: "Progress in small increments and log every session.",
	},
}

const noMatchText = "I could not find that topic in the training material. " +
	"When in doubt, ask a certified instructor and never dive alone."

// Coach answers from an Index, citing retrieved passages as [Source N].
type Coach struct {
	index *Index
	topK  int
}

// NewCoach creates a Coach over index.
func NewCoach(index *Index) *Coach {
	return &Coach{index: index, topK: DefaultTopK}
}

// Index returns the coach's passage index.
func (c *Coach) Index() *Index {
	return c.index
}

// Respond builds the reply for req. The template selects the tone.
func (c *Coach) Respond(ctx context.Context, req coachapi.ChatRequest) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}

	t, ok := tones[req.Template]
	if !ok {
		t = tones[coachapi.TemplateDefault]
	}

	hits := c.index.Search(req.UserMessage, c.topK, req.SimilarityMethod)
	if len(hits) == 0 {
		return Reply{Text: noMatchText}, nil
	}

	var b strings.Builder
	b.WriteString(t.opening)
	for i, h := range hits {
		fmt.Fprintf(&b, "\n\n%d. %s [Source %d]", i+1, h.Text, i+1)
	}
	b.WriteString("\n\n")
	b.WriteString(t.closing)
	b.WriteString("\n\nSources:")
	for i, h := range hits {
		fmt.Fprintf(&b, "\n[Source %d] %s", i+1, h.Source)
	}
	return Reply{Text: b.String(), Hits: hits}, nil
}
