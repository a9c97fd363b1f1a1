package service

import (
	"context"

	"github.com/spec-kit/support-assistant/internal/ai"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/escalation"
)

// Classifier extracts an intent and sentiment estimate from text.
// Implemented by ai.Client.
type Classifier interface {
	Classify(ctx context.Context, text string) (escalation.RawSignal, error)
}

// Retriever fetches knowledge base passages relevant to a query.
// Implemented by ai.Client.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]ai.Passage, error)
}

// Generator drafts an answer grounded on retrieved passages.
// Implemented by ai.Client.
type Generator interface {
	Generate(ctx context.Context, message string, passages []ai.Passage) (ai.Generation, error)
}

// SocialClient reads from and replies on the social platform.
// Implemented by social.Client.
type SocialClient interface {
	SearchHashtag(ctx context.Context, tag, sinceID string) ([]domain.SocialPost, error)
	Reply(ctx context.Context, postID, text string) error
}
