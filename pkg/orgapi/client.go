// Package orgapi is a typed client for the organizations proxy API.
package orgapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/healthmap/internal/model"
)

const (
	defaultBaseURL  = "http://localhost:8080"
	defaultResource = "organizations"
)

// ErrMalformedResponse is returned when the proxy answers with a body that
// is not the expected JSON shape.
var ErrMalformedResponse = eris.New("orgapi: malformed response")

// Client reads and writes organizations through the proxy.
type Client interface {
	FetchSheet(ctx context.Context, sheet string) (*SheetResponse, error)
	Save(ctx context.Context, row model.RawRow) (*SaveResponse, error)
	Health(ctx context.Context) error
}

// SheetResponse is the proxy's GET payload.
type SheetResponse struct {
	Status string         `json:"status"`
	Data   []model.RawRow `json:"data"`
	Cached bool           `json:"cached"`
}

// SaveResponse is the upstream answer to a POST, relayed by the proxy.
type SaveResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Raw     json.RawMessage `json:"-"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default proxy base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithResource overrides the API resource name.
func WithResource(name string) Option {
	return func(c *httpClient) {
		c.resource = strings.Trim(name, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL  string
	resource string
	http     *http.Client
}

// NewClient creates a proxy API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:  defaultBaseURL,
		resource: defaultResource,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *httpClient) resourceURL() string {
	return c.baseURL + "/api/" + c.resource
}

func (c *httpClient) FetchSheet(ctx context.Context, sheet string) (*SheetResponse, error) {
	u := c.resourceURL()
	if sheet != "" {
		u += "?" + url.Values{"sheet": {sheet}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "orgapi: create request")
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result SheetResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(ErrMalformedResponse, err.Error())
	}
	if result.Status == "error" {
		return nil, eris.Errorf("orgapi: fetch %s: %s", sheet, messageOf(body))
	}
	return &result, nil
}

func (c *httpClient) Save(ctx context.Context, row model.RawRow) (*SaveResponse, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, eris.Wrap(err, "orgapi: marshal row")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resourceURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "orgapi: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result SaveResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(ErrMalformedResponse, err.Error())
	}
	result.Raw = json.RawMessage(body)
	if result.Status == "error" {
		return &result, eris.Errorf("orgapi: save rejected: %s", result.Message)
	}
	return &result, nil
}

func (c *httpClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return eris.Wrap(err, "orgapi: create request")
	}
	_, err = c.do(req)
	return err
}

func (c *httpClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "orgapi: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "orgapi: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("orgapi: unexpected status %d: %s", resp.StatusCode, messageOf(body))
	}
	return body, nil
}

func messageOf(body []byte) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
