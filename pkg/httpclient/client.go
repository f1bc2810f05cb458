package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent is sent when a caller does not set its own.
const DefaultUserAgent = "startup-pulse/1.0 (+https://github.com/Adda-Baaj/startup-pulse)"

// Response is the subset of a resty response callers depend on.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client performs outbound HTTP calls with per-request headers.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	GetWithQuery(ctx context.Context, url string, query map[string]string, headers map[string]string) (Response, error)
	Post(ctx context.Context, url string, body any, headers map[string]string) (Response, error)
	Do(ctx context.Context, method, url string, body any, headers map[string]string) (Response, error)
}

type restyClient struct {
	r *resty.Client
}

// NewRestyClient builds a Client backed by resty with the given timeout.
// Retries are disabled; callers decide what to do with a failure.
func NewRestyClient(timeout time.Duration) Client {
	r := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", DefaultUserAgent)
	return &restyClient{r: r}
}

func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

func (c *restyClient) GetWithQuery(ctx context.Context, url string, query map[string]string, headers map[string]string) (Response, error) {
	resp, err := c.request(ctx, headers).
		SetQueryParams(query).
		Get(url)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *restyClient) Post(ctx context.Context, url string, body any, headers map[string]string) (Response, error) {
	return c.Do(ctx, http.MethodPost, url, body, headers)
}

func (c *restyClient) Do(ctx context.Context, method, url string, body any, headers map[string]string) (Response, error) {
	req := c.request(ctx, headers)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *restyClient) request(ctx context.Context, headers map[string]string) *resty.Request {
	if ctx == nil {
		ctx = context.Background()
	}
	req := c.r.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	return req
}
