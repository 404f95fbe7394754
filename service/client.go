// Package service wraps the payments service transport: document-query
// calls to the single query endpoint and verb-based calls to the rest,
// always carrying the bearer credential.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/go-resty/resty/v2"

	"payflow/runtime"
)

const queryPath = "/v1/query"

// Client is the payments-service client shared by every executor.
type Client struct {
	client *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

// Query posts a document plus named variables to the query endpoint.
// cred may be nil for unauthenticated calls.
func (c *Client) Query(ctx context.Context, cred *runtime.Credential, document string, variables map[string]any) (*Response, error) {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"query":     document,
			"variables": variables,
		})
	if cred != nil {
		req.SetAuthToken(cred.Token)
	}

	resp, err := req.Post(queryPath)
	if err != nil {
		return nil, &runtime.TransportError{Endpoint: queryPath, Err: err}
	}
	return c.parse(resp)
}

// Do issues a verb-based call. query parameters and body are both optional.
func (c *Client) Do(ctx context.Context, cred *runtime.Credential, method, path string, query map[string]string, body any) (*Response, error) {
	req := c.client.R().SetContext(ctx)
	if cred != nil {
		req.SetAuthToken(cred.Token)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, &runtime.TransportError{Endpoint: path, Err: err}
	}
	return c.parse(resp)
}

// Health probes the payments service.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return &runtime.TransportError{Endpoint: "/healthz", Err: err}
	}
	if resp.IsError() {
		return fmt.Errorf("payments service returned %s", resp.Status())
	}
	return nil
}

// parse normalizes every response to the uniform shape: data under "data",
// application errors under "errors". A body that is not JSON on a non-2xx
// status still yields OK=false rather than an error.
func (c *Client) parse(resp *resty.Response) (*Response, error) {
	body := resp.Body()

	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		if resp.IsError() {
			return &Response{
				OK:     false,
				Issues: []Issue{{Message: fmt.Sprintf("service returned %s", resp.Status())}},
			}, nil
		}
		return nil, &runtime.TransportError{
			Endpoint: resp.Request.URL,
			Err:      fmt.Errorf("unparseable response body: %w", err),
		}
	}

	out := &Response{OK: true}

	if errsNode := parsed.Path("errors"); errsNode != nil && len(errsNode.Children()) > 0 {
		out.OK = false
		for _, child := range errsNode.Children() {
			var issue Issue
			if err := json.Unmarshal(child.Bytes(), &issue); err != nil || issue.Message == "" {
				issue.Message = child.String()
			}
			out.Issues = append(out.Issues, issue)
		}
	}

	if data := parsed.Path("data"); data != nil {
		out.Data = data
	} else {
		out.Data = parsed
	}

	if resp.IsError() && out.OK {
		out.OK = false
		msg := fmt.Sprintf("service returned %s", resp.Status())
		if m, ok := out.StringAt("message"); ok {
			msg = m
		}
		out.Issues = append(out.Issues, Issue{Message: msg})
	}

	return out, nil
}
