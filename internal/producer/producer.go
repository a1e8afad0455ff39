// Package producer runs the extraction side of the pipeline: an unbounded
// periodic cycle that fetches every configured source, accumulates the raw
// pages into one batch, and publishes an identical copy to every configured
// transport.
package producer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/bazar-khobor/internal/logger"
	"github.com/Adda-Baaj/bazar-khobor/pkg/extractor"
	"github.com/Adda-Baaj/bazar-khobor/pkg/publishers"
)

// DefaultInterval is the pause between crawl cycles.
const DefaultInterval = 6 * time.Hour

// Producer crawls sources and fans the batch out to the transports.
type Producer struct {
	sources  []extractor.Source
	registry extractor.Registry
	pubs     []publishers.Publisher
	interval time.Duration
	log      logger.Logger
}

// New builds a Producer. A nil registry gets the default fetchers; a zero
// interval gets DefaultInterval.
func New(sources []extractor.Source, registry extractor.Registry, pubs []publishers.Publisher, interval time.Duration, log logger.Logger) *Producer {
	if registry == nil {
		registry = extractor.DefaultRegistry(nil)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Producer{
		sources:  sources,
		registry: registry,
		pubs:     pubs,
		interval: interval,
		log:      log,
	}
}

// Run executes crawl cycles until the context is canceled.
func (p *Producer) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.RunCycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle fetches every source once and publishes the accumulated batch.
// Per-source fetch failures and per-transport publish failures are isolated:
// neither aborts the rest of the cycle, and nothing escapes this boundary.
func (p *Producer) RunCycle(ctx context.Context) publishers.Event {
	evt := publishers.Event{
		BatchID:   uuid.NewString(),
		FetchedAt: time.Now().UTC(),
		Pages:     make(map[string]string, len(p.sources)),
	}

	for _, src := range p.sources {
		if ctx.Err() != nil {
			break
		}

		content, err := p.fetch(ctx, src)
		if err != nil {
			p.log.WarnObj("source fetch failed", "fetch_error", map[string]any{
				"source_id": src.ID,
				"url":       src.URL,
				"error":     err.Error(),
			})
			continue
		}
		evt.Pages[src.URL] = content
	}

	if len(evt.Pages) == 0 {
		p.log.WarnObj("crawl cycle produced no pages, skipping publish", "empty_cycle", map[string]any{
			"batch_id": evt.BatchID,
			"sources":  len(p.sources),
		})
		return evt
	}

	for _, pub := range p.pubs {
		if err := pub.Publish(ctx, evt); err != nil {
			p.log.ErrorObj("publish failed", "publish_error", map[string]any{
				"publisher_id": pub.ID(),
				"batch_id":     evt.BatchID,
				"error":        err.Error(),
			})
			continue
		}
		p.log.InfoObj("batch published", "publish_ok", map[string]any{
			"publisher_id": pub.ID(),
			"batch_id":     evt.BatchID,
			"pages":        len(evt.Pages),
		})
	}

	return evt
}

func (p *Producer) fetch(ctx context.Context, src extractor.Source) (string, error) {
	fetcher, err := p.registry.FetcherFor(src)
	if err != nil {
		return "", err
	}
	return fetcher.Fetch(ctx, src)
}
