package normalizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/bazar-khobor/internal/logger"
	"github.com/Adda-Baaj/bazar-khobor/pkg/publishers"
	"github.com/Adda-Baaj/bazar-khobor/pkg/queue"
)

type stubQueue struct {
	messages []*queue.Message
	deleted  []string
	recvErr  error
	delErr   error
}

func (s *stubQueue) Receive(context.Context) (*queue.Message, error) {
	if s.recvErr != nil {
		return nil, s.recvErr
	}
	if len(s.messages) == 0 {
		return nil, nil
	}
	msg := s.messages[0]
	s.messages = s.messages[1:]
	return msg, nil
}

func (s *stubQueue) Delete(_ context.Context, msg *queue.Message) error {
	if s.delErr != nil {
		return s.delErr
	}
	s.deleted = append(s.deleted, msg.ID)
	return nil
}

type stubCompleter struct {
	response string
	err      error
	prompts  []string
	system   string
}

func (s *stubCompleter) Complete(_ context.Context, system string, prompts []string) (string, error) {
	s.system = system
	s.prompts = append(s.prompts, prompts...)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubDocs struct {
	inserted []any
	err      error
}

func (s *stubDocs) InsertNews(_ context.Context, doc any) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, doc)
	return nil
}

type stubVectors struct {
	texts []string
	err   error
}

func (s *stubVectors) AddTexts(_ context.Context, text string) error {
	if s.err != nil {
		return s.err
	}
	s.texts = append(s.texts, text)
	return nil
}

type stubJournal struct {
	seen map[string]bool
}

func (s *stubJournal) MarkProcessed(id string) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	prior := s.seen[id]
	s.seen[id] = true
	return prior, nil
}

func envelopeMessage(t *testing.T, id string, pages map[string]string) *queue.Message {
	t.Helper()
	body, err := publishers.EncodeEvent(publishers.Event{
		BatchID:   "batch-1",
		FetchedAt: time.Now().UTC(),
		Pages:     pages,
	})
	require.NoError(t, err)
	return &queue.Message{ID: id, Receipt: id + "-receipt", Body: []byte(body)}
}

func TestDrainProcessesAndAcks(t *testing.T) {
	q := &stubQueue{messages: []*queue.Message{
		envelopeMessage(t, "m1", map[string]string{"Yahoo News": "# Solar boom"}),
	}}
	llm := &stubCompleter{response: `{"Yahoo News": [{"title": "Solar boom", "summary": "Solar output hits a record.", "link": "example.com/solar", "topic": "Energy"}]}`}
	docs := &stubDocs{}
	vectors := &stubVectors{}

	c := New(q, llm, docs, vectors, &stubJournal{}, time.Second, logger.NopLogger{})

	processed, err := c.Drain(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, docs.inserted, 1)
	doc, ok := docs.inserted[0].(map[string]any)
	require.True(t, ok)
	items, ok := doc["Yahoo News"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Solar boom", item["title"])
	assert.Equal(t, "Energy", item["topic"])

	require.Len(t, vectors.texts, 1)
	assert.Contains(t, vectors.texts[0], "Solar boom")

	assert.Equal(t, []string{"m1"}, q.deleted)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Solar boom")
}

func TestDrainEmptyQueueIsIdle(t *testing.T) {
	q := &stubQueue{}
	c := New(q, &stubCompleter{}, &stubDocs{}, &stubVectors{}, nil, time.Second, logger.NopLogger{})

	processed, err := c.Drain(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestDrainLLMFailureLeavesMessageInFlight(t *testing.T) {
	q := &stubQueue{messages: []*queue.Message{
		envelopeMessage(t, "m1", map[string]string{"Reuters": "text"}),
	}}
	docs := &stubDocs{}

	c := New(q, &stubCompleter{err: errors.New("model unavailable")}, docs, &stubVectors{}, nil, time.Second, logger.NopLogger{})

	processed, err := c.Drain(context.Background())
	require.Error(t, err)
	assert.False(t, processed)
	assert.Empty(t, docs.inserted)
	assert.Empty(t, q.deleted)
}

func TestDrainDocumentStoreFailureBlocksAck(t *testing.T) {
	q := &stubQueue{messages: []*queue.Message{
		envelopeMessage(t, "m1", map[string]string{"Reuters": "text"}),
	}}

	c := New(q, &stubCompleter{response: `{"Reuters": []}`}, &stubDocs{err: errors.New("mongo down")}, &stubVectors{}, nil, time.Second, logger.NopLogger{})

	processed, err := c.Drain(context.Background())
	require.Error(t, err)
	assert.False(t, processed)
	assert.Empty(t, q.deleted)
}

func TestDrainVectorFailureStillAcks(t *testing.T) {
	q := &stubQueue{messages: []*queue.Message{
		envelopeMessage(t, "m1", map[string]string{"Reuters": "text"}),
	}}
	docs := &stubDocs{}

	c := New(q, &stubCompleter{response: `{"Reuters": []}`}, docs, &stubVectors{err: errors.New("pgvector down")}, nil, time.Second, logger.NopLogger{})

	processed, err := c.Drain(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, docs.inserted, 1)
	assert.Equal(t, []string{"m1"}, q.deleted)
}

func TestDrainUnparseableOutputStoredAsText(t *testing.T) {
	q := &stubQueue{messages: []*queue.Message{
		envelopeMessage(t, "m1", map[string]string{"Reuters": "text"}),
	}}
	docs := &stubDocs{}

	c := New(q, &stubCompleter{response: "the model rambled instead of answering"}, docs, &stubVectors{}, nil, time.Second, logger.NopLogger{})

	processed, err := c.Drain(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, docs.inserted, 1)
	_, isString := docs.inserted[0].(string)
	assert.True(t, isString)
	assert.Equal(t, []string{"m1"}, q.deleted)
}

func TestDrainRedeliveryIsHandledAgain(t *testing.T) {
	journal := &stubJournal{}
	docs := &stubDocs{}
	llm := &stubCompleter{response: `{"Reuters": []}`}

	for range 2 {
		q := &stubQueue{messages: []*queue.Message{
			envelopeMessage(t, "m1", map[string]string{"Reuters": "text"}),
		}}
		c := New(q, llm, docs, &stubVectors{}, journal, time.Second, logger.NopLogger{})
		processed, err := c.Drain(context.Background())
		require.NoError(t, err)
		assert.True(t, processed)
	}

	// Redelivery is logged, not skipped: both deliveries are persisted.
	assert.Len(t, docs.inserted, 2)
}

func TestDrainRawBodyFallsBackToOpaqueText(t *testing.T) {
	q := &stubQueue{messages: []*queue.Message{
		{ID: "m1", Receipt: "r1", Body: []byte("not an envelope")},
	}}
	llm := &stubCompleter{response: `{"Reuters": []}`}

	c := New(q, llm, &stubDocs{}, &stubVectors{}, nil, time.Second, logger.NopLogger{})

	processed, err := c.Drain(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, llm.prompts, 1)
	assert.Equal(t, "not an envelope", llm.prompts[0])
}

func TestSystemInstructionNamesEveryTopic(t *testing.T) {
	prompt := systemInstruction()
	assert.Contains(t, prompt, "Energy")
	assert.Contains(t, prompt, "Politics")
	assert.Contains(t, prompt, "double quotes")
}
