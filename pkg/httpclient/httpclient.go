package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Response is the minimal view of an HTTP response used by callers.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client is the outbound HTTP contract shared by extractors and delivery
// clients.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (Response, error)
}

// restyClient implements Client with a shared resty client.
type restyClient struct {
	client *resty.Client
}

// NewRestyClient builds a Client with the given per-request timeout.
func NewRestyClient(timeout time.Duration) Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &restyClient{client: c}
}

type restyResponse struct {
	resp *resty.Response
}

func (r restyResponse) StatusCode() int { return r.resp.StatusCode() }
func (r restyResponse) Body() []byte    { return r.resp.Body() }

func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp: resp}, nil
}

func (c *restyClient) Post(ctx context.Context, url string, headers map[string]string, body []byte) (Response, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp: resp}, nil
}
