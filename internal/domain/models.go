package domain

import "time"

// Domain contains core models shared by the producer, consumer, and notifier.

// Article is one normalized news item produced by the LLM normalization step.
type Article struct {
	Title   string `json:"title" bson:"title"`
	Summary string `json:"summary" bson:"summary"`
	Link    string `json:"link" bson:"link"`
	Topic   Topic  `json:"topic" bson:"topic"`
}

// NewsDocument maps a source name ("Yahoo News", "Bloomberg") to its articles.
// One document is created per successfully processed queue message. Documents
// are append-only; the store never merges or deduplicates them.
type NewsDocument map[string][]Article

// RawEnvelope carries one extracted page before normalization.
type RawEnvelope struct {
	Source     string `json:"source"`
	RawContent string `json:"raw_content"`
}

// BatchEnvelope accumulates every page fetched in one producer cycle, keyed by
// source URL.
type BatchEnvelope struct {
	BatchID   string            `json:"batch_id"`
	FetchedAt time.Time         `json:"fetched_at"`
	Pages     map[string]string `json:"pages"`
}

// UserPreference is one user's topic subscription set. The user id is the
// email address the digest is delivered to.
type UserPreference struct {
	UserID string   `json:"user_id" bson:"user_id"`
	Topics []string `json:"topics" bson:"topics"`
}

// DigestItem is an Article enriched with its owning source name, produced
// transiently for one user's digest. Never persisted.
type DigestItem struct {
	Title   string
	Summary string
	Link    string
	Topic   Topic
	Source  string
}
