package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSConfig holds the settings for the consumer queue.
type SQSConfig struct {
	QueueURL        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// WaitTimeSeconds enables SQS long polling when > 0.
	WaitTimeSeconds int32
}

// sqsClient defines the minimal subset of the SQS client used by the receiver.
type sqsClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// sqsReceiver implements Receiver for AWS SQS.
type sqsReceiver struct {
	queueURL string
	waitTime int32
	client   sqsClient
}

// NewSQSReceiver builds an SQS receiver with static credentials.
func NewSQSReceiver(ctx context.Context, cfg SQSConfig) (Receiver, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("sqs queue url is empty")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	awsCfg, err := awscfg.LoadDefaultConfig(ctx,
		awscfg.WithRegion(cfg.Region),
		awscfg.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &sqsReceiver{
		queueURL: cfg.QueueURL,
		waitTime: cfg.WaitTimeSeconds,
		client:   sqs.NewFromConfig(awsCfg),
	}, nil
}

// Receive polls the queue for a single message.
func (r *sqsReceiver) Receive(ctx context.Context) (*Message, error) {
	out, err := r.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(r.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     r.waitTime,
	})
	if err != nil {
		return nil, fmt.Errorf("receive message from sqs: %w", err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	msg := out.Messages[0]
	return &Message{
		ID:      aws.ToString(msg.MessageId),
		Receipt: aws.ToString(msg.ReceiptHandle),
		Body:    []byte(aws.ToString(msg.Body)),
	}, nil
}

// Delete acknowledges the message, removing it from the queue.
func (r *sqsReceiver) Delete(ctx context.Context, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("cannot delete nil message")
	}

	_, err := r.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(r.queueURL),
		ReceiptHandle: aws.String(msg.Receipt),
	})
	if err != nil {
		return fmt.Errorf("delete message from sqs: %w", err)
	}
	return nil
}
