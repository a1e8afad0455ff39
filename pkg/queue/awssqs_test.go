package queue

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSQSClient struct {
	receiveOut *sqs.ReceiveMessageOutput
	deleted    []string
}

func (s *stubSQSClient) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return s.receiveOut, nil
}

func (s *stubSQSClient) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	s.deleted = append(s.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSReceiverEmptyQueue(t *testing.T) {
	r := &sqsReceiver{
		queueURL: "https://queue",
		client:   &stubSQSClient{receiveOut: &sqs.ReceiveMessageOutput{}},
	}

	msg, err := r.Receive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestSQSReceiverReceiveAndDelete(t *testing.T) {
	client := &stubSQSClient{
		receiveOut: &sqs.ReceiveMessageOutput{
			Messages: []types.Message{{
				MessageId:     aws.String("m-1"),
				ReceiptHandle: aws.String("rh-1"),
				Body:          aws.String("payload"),
			}},
		},
	}
	r := &sqsReceiver{queueURL: "https://queue", client: client}

	msg, err := r.Receive(context.Background())
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "m-1", msg.ID)
	assert.Equal(t, []byte("payload"), msg.Body)

	require.NoError(t, r.Delete(context.Background(), msg))
	assert.Equal(t, []string{"rh-1"}, client.deleted)
}

func TestSQSReceiverDeleteNil(t *testing.T) {
	r := &sqsReceiver{queueURL: "https://queue", client: &stubSQSClient{}}
	assert.Error(t, r.Delete(context.Background(), nil))
}
