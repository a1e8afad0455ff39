// Package store owns the document-store side of persistence: normalized news
// documents and user preference records, in separate collections.
package store

import (
	"context"

	"github.com/Adda-Baaj/bazar-khobor/internal/domain"
)

// NewsStore persists and reads normalized news documents. Documents are
// append-only; identical content inserted twice stays two records.
type NewsStore interface {
	// InsertNews stores one document: either a structured multi-source map or
	// an opaque degraded payload.
	InsertNews(ctx context.Context, doc any) error
	// LatestNews returns up to limit documents, most recently inserted first.
	// Opaque (non-structured) documents are skipped.
	LatestNews(ctx context.Context, limit int) ([]domain.NewsDocument, error)
}

// PreferenceStore manages user topic-preference records, one per user,
// last-write-wins.
type PreferenceStore interface {
	UpsertPreference(ctx context.Context, pref domain.UserPreference) error
	GetPreference(ctx context.Context, userID string) (domain.UserPreference, bool, error)
	ListPreferences(ctx context.Context) ([]domain.UserPreference, error)
}

// SourceSnippets groups recent articles under their source name for the read
// API.
type SourceSnippets struct {
	Source   string           `json:"source" bson:"_id"`
	Articles []domain.Article `json:"articles" bson:"articles"`
}

// SnippetStore serves the latest-news aggregation.
type SnippetStore interface {
	// LatestSnippets aggregates articles from the most recent documents,
	// grouped by source, optionally filtered to one topic.
	LatestSnippets(ctx context.Context, topic string, limit int) ([]SourceSnippets, error)
}
