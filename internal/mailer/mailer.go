// Package mailer delivers digest emails through the Novu trigger API.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// DefaultEndpoint is the Novu event trigger URL.
const DefaultEndpoint = "https://api.novu.co/v1/events/trigger"

// DefaultWorkflow is the notification workflow triggered per digest.
const DefaultWorkflow = "emailerworkflow"

// Sender delivers one rendered digest to one recipient.
type Sender interface {
	Send(ctx context.Context, email, html string) error
}

// Novu triggers an email workflow for each digest.
type Novu struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	workflow string
}

// NewNovu builds a Novu sender. Empty endpoint or workflow fall back to the
// defaults.
func NewNovu(apiKey, endpoint, workflow string) *Novu {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if workflow == "" {
		workflow = DefaultWorkflow
	}
	return &Novu{
		client:   resty.New().SetTimeout(30 * time.Second),
		endpoint: endpoint,
		apiKey:   apiKey,
		workflow: workflow,
	}
}

type triggerRequest struct {
	Name    string         `json:"name"`
	To      triggerTarget  `json:"to"`
	Payload triggerPayload `json:"payload"`
}

type triggerTarget struct {
	SubscriberID string `json:"subscriberId"`
	Email        string `json:"email"`
}

type triggerPayload struct {
	Message string `json:"Message"`
}

// Send triggers the workflow with the rendered HTML as the message payload.
// Each send uses a fresh subscriber id so Novu treats recipients as
// anonymous.
func (n *Novu) Send(ctx context.Context, email, html string) error {
	req := triggerRequest{
		Name: n.workflow,
		To: triggerTarget{
			SubscriberID: uuid.NewString(),
			Email:        email,
		},
		Payload: triggerPayload{Message: html},
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "ApiKey "+n.apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(req).
		Post(n.endpoint)
	if err != nil {
		return fmt.Errorf("trigger novu workflow: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("novu returned status %d: %s", resp.StatusCode(), snippet(resp.Body()))
	}
	return nil
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
