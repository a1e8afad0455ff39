// Package normalizer is the consuming half of the pipeline: it drains raw
// crawl batches from the queue, asks the LLM to coerce them into the fixed
// multi-source article schema, repairs the model output, and persists the
// result to the document store and the vector index before acknowledging.
package normalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/bazar-khobor/internal/domain"
	"github.com/Adda-Baaj/bazar-khobor/internal/jsonrepair"
	"github.com/Adda-Baaj/bazar-khobor/internal/llm"
	"github.com/Adda-Baaj/bazar-khobor/internal/logger"
	"github.com/Adda-Baaj/bazar-khobor/pkg/publishers"
	"github.com/Adda-Baaj/bazar-khobor/pkg/queue"
)

// DefaultIdleWait is the pause before re-polling an empty queue.
const DefaultIdleWait = 4 * time.Hour

// DocumentWriter is the document-store side of persistence.
type DocumentWriter interface {
	InsertNews(ctx context.Context, doc any) error
}

// VectorWriter is the vector-index side of persistence.
type VectorWriter interface {
	AddTexts(ctx context.Context, text string) error
}

// Journal records processed message ids so transport redeliveries surface in
// logs.
type Journal interface {
	MarkProcessed(messageID string) (bool, error)
}

// Consumer drains the raw-news queue one message at a time.
type Consumer struct {
	queue    queue.Receiver
	complete llm.Completer
	docs     DocumentWriter
	vectors  VectorWriter
	journal  Journal
	idleWait time.Duration
	log      logger.Logger
}

// New builds a Consumer. The journal is optional; a zero idleWait gets
// DefaultIdleWait.
func New(q queue.Receiver, complete llm.Completer, docs DocumentWriter, vectors VectorWriter, j Journal, idleWait time.Duration, log logger.Logger) *Consumer {
	if idleWait <= 0 {
		idleWait = DefaultIdleWait
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Consumer{
		queue:    q,
		complete: complete,
		docs:     docs,
		vectors:  vectors,
		journal:  j,
		idleWait: idleWait,
		log:      log,
	}
}

// Run drains messages until the context is canceled. Messages are processed
// back to back; an empty queue pauses the loop for the idle wait.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		processed, err := c.Drain(ctx)
		if err != nil {
			c.log.ErrorObj("message processing failed", "consume_error", map[string]any{
				"error": err.Error(),
			})
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.idleWait):
		}
	}
}

// Drain polls the queue for one message and fully handles it:
// receive -> normalize -> repair -> persist -> acknowledge. The returned bool
// reports whether a message was handled; false with a nil error means the
// queue was empty. The message is deleted only after the document-store
// insert succeeds, so a crash mid-processing leads to redelivery rather than
// silent loss.
func (c *Consumer) Drain(ctx context.Context) (bool, error) {
	msg, err := c.queue.Receive(ctx)
	if err != nil {
		return false, fmt.Errorf("poll queue: %w", err)
	}
	if msg == nil {
		c.log.DebugObj("queue is empty", "queue_idle", nil)
		return false, nil
	}

	c.log.InfoObj("message received", "message_received", map[string]any{
		"message_id": msg.ID,
		"bytes":      len(msg.Body),
	})

	if c.journal != nil {
		if seen, jerr := c.journal.MarkProcessed(msg.ID); jerr != nil {
			c.log.WarnObj("journal write failed", "journal_error", map[string]any{
				"message_id": msg.ID,
				"error":      jerr.Error(),
			})
		} else if seen {
			c.log.WarnObj("message redelivered by transport", "message_redelivery", map[string]any{
				"message_id": msg.ID,
			})
		}
	}

	rawText := decodePayload(msg.Body)

	response, err := c.complete.Complete(ctx, systemInstruction(), []string{rawText})
	if err != nil {
		// Leave the message in flight; the transport will redeliver it.
		return false, fmt.Errorf("normalize message %s: %w", msg.ID, err)
	}

	value, structured := jsonrepair.Repair(response)
	if !structured {
		c.log.WarnObj("model output did not parse, storing opaque text", "parse_degraded", map[string]any{
			"message_id": msg.ID,
		})
	}

	// The two stores are independent best-effort writes; neither rolls the
	// other back. Only the document store gates the ack.
	docErr := c.docs.InsertNews(ctx, value)
	if docErr != nil {
		c.log.ErrorObj("document store write failed", "store_mongo_error", map[string]any{
			"message_id": msg.ID,
			"error":      docErr.Error(),
		})
	}

	if err := c.vectors.AddTexts(ctx, textForm(value)); err != nil {
		c.log.ErrorObj("vector store write failed", "store_vector_error", map[string]any{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	}

	if docErr != nil {
		return false, fmt.Errorf("persist message %s: %w", msg.ID, docErr)
	}

	if err := c.queue.Delete(ctx, msg); err != nil {
		c.log.ErrorObj("message delete failed", "queue_delete_error", map[string]any{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
		return true, nil
	}

	c.log.InfoObj("message processed", "message_processed", map[string]any{
		"message_id": msg.ID,
		"structured": structured,
	})
	return true, nil
}

// decodePayload recovers the raw text handed to the LLM. The wire form is the
// base64 batch envelope; anything else is passed through as-is so malformed
// payloads still degrade to opaque storage instead of poisoning the queue.
func decodePayload(body []byte) string {
	evt, err := publishers.DecodeEvent(body)
	if err != nil {
		return string(body)
	}

	serialized, err := json.Marshal(evt.Pages)
	if err != nil {
		return string(body)
	}
	return string(serialized)
}

// textForm renders the persisted value for embedding.
func textForm(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	serialized, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(serialized)
}

// systemInstruction is the fixed normalization prompt: the exact nested
// schema, the closed topic set, and the quoting conventions the repair
// ladder expects.
func systemInstruction() string {
	topics := make([]string, 0, len(domain.Topics()))
	for _, t := range domain.Topics() {
		topics = append(topics, string(t))
	}

	return strings.Join([]string{
		"You are a news summarizer. Consider the raw content below and respond with a single JSON object, without any special characters or markdown formatting.",
		"Required format, strictly JSON: {\"Yahoo News\": [{\"title\": \"title of the news\", \"summary\": \"summary of the news, headline completed for proper grammar\", \"link\": \"link to the news\", \"topic\": \"one of [" + strings.Join(topics, ", ") + "]\"}], \"Bloomberg\": ...}.",
		"Use double quotes for JSON keys and values and single quotes for apostrophes inside text. Each news source name is a key; its value is an array of news items, each with title, summary, link, and topic.",
	}, "\n")
}
