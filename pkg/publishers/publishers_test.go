package publishers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryYAML = `
publishers:
  - id: primary-queue
    type: queue
    queue:
      provider: aws-sqs
      aws:
        uri: https://sqs.us-east-1.amazonaws.com/1234/raw-news
        region: us-east-1
        access_key_id: AKIA
        secret_access_key: secret
  - id: mirror-topic
    type: queue
    enabled: false
    queue:
      provider: gcp
      gcp:
        project_id: news-pipeline
        topic: raw-news
  - id: relay
    type: http
    http:
      url: https://example.com/ingest
`

func TestParseRegistry(t *testing.T) {
	reg, err := ParseRegistry([]byte(registryYAML), ".yaml")
	require.NoError(t, err)

	require.Len(t, reg.All(), 3)
	require.Len(t, reg.Enabled(), 2)

	cfg, ok := reg.ByID("relay")
	require.True(t, ok)
	assert.Equal(t, TypeHTTP, cfg.Type)
	assert.Equal(t, "POST", cfg.HTTP.Method)
	assert.Equal(t, httpDefaultTimeoutSeconds, cfg.HTTP.TimeoutSeconds)

	_, ok = reg.ByID("missing")
	assert.False(t, ok)
}

func TestParseRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty file", yaml: "publishers: []"},
		{
			name: "missing id",
			yaml: "publishers:\n  - type: http\n    http:\n      url: https://x\n",
		},
		{
			name: "unknown provider",
			yaml: "publishers:\n  - id: q\n    type: queue\n    queue:\n      provider: rabbitmq\n",
		},
		{
			name: "kafka without brokers",
			yaml: "publishers:\n  - id: q\n    type: queue\n    queue:\n      provider: kafka\n      kafka:\n        topic: raw\n",
		},
		{
			name: "duplicate ids",
			yaml: "publishers:\n  - id: a\n    type: http\n    http:\n      url: https://x\n  - id: a\n    type: http\n    http:\n      url: https://y\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tc.yaml), ".yaml")
			assert.Error(t, err)
		})
	}
}

func TestEventCodecRoundTrip(t *testing.T) {
	evt := Event{
		BatchID:   "batch-1",
		FetchedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Pages: map[string]string{
			"https://finance.yahoo.com": "raw page text",
		},
	}

	payload, err := EncodeEvent(evt)
	require.NoError(t, err)

	decoded, err := DecodeEvent([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, evt, decoded)
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte("not base64 at all!!"))
	assert.Error(t, err)
}

type stubSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (s *stubSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.input = params
	if s.err != nil {
		return nil, s.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSSenderEncodesEvent(t *testing.T) {
	client := &stubSQSClient{}
	sender := &awsSQSSender{queueURL: "https://queue", client: client, log: nopLogger{}}

	evt := Event{BatchID: "batch-7", Pages: map[string]string{"https://a": "body"}}
	require.NoError(t, sender.Send(context.Background(), evt))

	require.NotNil(t, client.input)
	assert.Equal(t, "https://queue", aws.ToString(client.input.QueueUrl))
	assert.Equal(t, "batch-7", aws.ToString(client.input.MessageAttributes["batch_id"].StringValue))

	decoded, err := DecodeEvent([]byte(aws.ToString(client.input.MessageBody)))
	require.NoError(t, err)
	assert.Equal(t, evt.Pages, decoded.Pages)
}

func TestSQSSenderWrapsError(t *testing.T) {
	client := &stubSQSClient{err: errors.New("throttled")}
	sender := &awsSQSSender{queueURL: "https://queue", client: client, log: nopLogger{}}

	err := sender.Send(context.Background(), Event{BatchID: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send message to sqs")
}

type stubKafkaWriter struct {
	msgs []kafka.Message
	err  error
}

func (s *stubKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	s.msgs = append(s.msgs, msgs...)
	return s.err
}

func TestKafkaSenderEncodesEvent(t *testing.T) {
	writer := &stubKafkaWriter{}
	sender := &kafkaSender{topic: "raw-news", writer: writer, log: nopLogger{}}

	evt := Event{BatchID: "batch-2", Pages: map[string]string{"https://b": "text"}}
	require.NoError(t, sender.Send(context.Background(), evt))

	require.Len(t, writer.msgs, 1)
	assert.Equal(t, []byte("batch-2"), writer.msgs[0].Key)

	decoded, err := DecodeEvent(writer.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, evt.Pages, decoded.Pages)
}
