package publishers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// httpPublisher posts encoded events to a generic HTTP sink.
type httpPublisher struct {
	id     string
	cfg    HTTPPublisherConfig
	client *http.Client
	log    Logger
}

// newHTTPPublisher creates an HTTP publisher for the given config.
func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	return &httpPublisher{
		id:  cfg.ID,
		cfg: *cfg.HTTP,
		client: &http.Client{
			Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		},
		log: ensureLogger(log),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }

// Publish posts the encoded event payload to the configured URL.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := EncodeEvent(evt)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, p.cfg.Method, p.cfg.URL, bytes.NewBufferString(payload))
	if err != nil {
		return fmt.Errorf("build http publish request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.ErrorObj("http publisher send failed", "publisher_http_error", map[string]any{
			"url":   p.cfg.URL,
			"error": err.Error(),
		})
		return fmt.Errorf("post event to %s: %w", p.cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("http sink %s returned status %d", p.cfg.URL, resp.StatusCode)
	}

	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"url":      p.cfg.URL,
		"batch_id": evt.BatchID,
	})
	return nil
}
