// Package notifier matches recently stored articles against user topic
// preferences and mails each matched user an HTML digest.
package notifier

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Adda-Baaj/bazar-khobor/internal/domain"
	"github.com/Adda-Baaj/bazar-khobor/internal/logger"
	"github.com/Adda-Baaj/bazar-khobor/internal/mailer"
	"github.com/Adda-Baaj/bazar-khobor/internal/store"
)

// DefaultInterval is the pause between digest cycles.
const DefaultInterval = 12 * time.Hour

// DefaultDocumentWindow is how many of the most recent news documents each
// cycle considers.
const DefaultDocumentWindow = 3

// Notifier runs the preference-matching digest cycle.
type Notifier struct {
	news     store.NewsStore
	prefs    store.PreferenceStore
	renderer Renderer
	sender   mailer.Sender
	window   int
	interval time.Duration
	log      logger.Logger
}

// Renderer turns one user's matched articles into an email body.
type Renderer interface {
	Render(items []domain.DigestItem) (string, error)
}

// New builds a Notifier. Zero window and interval get the defaults.
func New(news store.NewsStore, prefs store.PreferenceStore, renderer Renderer, sender mailer.Sender, window int, interval time.Duration, log logger.Logger) *Notifier {
	if window <= 0 {
		window = DefaultDocumentWindow
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Notifier{
		news:     news,
		prefs:    prefs,
		renderer: renderer,
		sender:   sender,
		window:   window,
		interval: interval,
		log:      log,
	}
}

// Run executes digest cycles on the configured interval until the context is
// canceled. The first cycle runs immediately.
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		if err := n.RunCycle(ctx); err != nil {
			n.log.ErrorObj("digest cycle failed", "digest_cycle_error", map[string]any{
				"error": err.Error(),
			})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle runs one digest pass: load preferences and the recent document
// window, match per user, render and send. A failed send for one user never
// blocks the others. Users with no matched articles get no email.
func (n *Notifier) RunCycle(ctx context.Context) error {
	prefs, err := n.prefs.ListPreferences(ctx)
	if err != nil {
		return fmt.Errorf("list preferences: %w", err)
	}
	if len(prefs) == 0 {
		n.log.InfoObj("no user preferences, skipping cycle", "digest_no_users", nil)
		return nil
	}

	docs, err := n.news.LatestNews(ctx, n.window)
	if err != nil {
		return fmt.Errorf("load latest news: %w", err)
	}

	for _, pref := range prefs {
		items := MatchArticles(docs, pref.Topics)
		if len(items) == 0 {
			n.log.DebugObj("no matching articles for user", "digest_no_match", map[string]any{
				"user_id": pref.UserID,
			})
			continue
		}

		html, err := n.renderer.Render(items)
		if err != nil {
			n.log.ErrorObj("digest render failed", "digest_render_error", map[string]any{
				"user_id": pref.UserID,
				"error":   err.Error(),
			})
			continue
		}

		if err := n.sender.Send(ctx, pref.UserID, html); err != nil {
			n.log.ErrorObj("digest send failed", "digest_send_error", map[string]any{
				"user_id": pref.UserID,
				"error":   err.Error(),
			})
			continue
		}

		n.log.InfoObj("digest sent", "digest_sent", map[string]any{
			"user_id":  pref.UserID,
			"articles": len(items),
		})
	}

	return nil
}

// MatchArticles collects every article in the document window whose topic is
// both in the closed topic set and among the user's subscribed topics.
// Sources inside a document are walked in sorted order so a user's digest is
// deterministic for a given window.
func MatchArticles(docs []domain.NewsDocument, topics []string) []domain.DigestItem {
	wanted := make(map[domain.Topic]struct{}, len(topics))
	for _, raw := range topics {
		if t, ok := domain.ParseTopic(raw); ok {
			wanted[t] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	var items []domain.DigestItem
	for _, doc := range docs {
		sources := make([]string, 0, len(doc))
		for source := range doc {
			sources = append(sources, source)
		}
		sort.Strings(sources)

		for _, source := range sources {
			for _, article := range doc[source] {
				if !article.Topic.Known() {
					continue
				}
				if _, ok := wanted[article.Topic]; !ok {
					continue
				}
				items = append(items, domain.DigestItem{
					Title:   article.Title,
					Summary: article.Summary,
					Link:    article.Link,
					Topic:   article.Topic,
					Source:  source,
				})
			}
		}
	}
	return items
}
