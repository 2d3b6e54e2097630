// Package appscript talks to the Google Apps Script web app that fronts the
// organizations spreadsheet.
package appscript

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/healthmap/internal/model"
)

// ErrInvalidResponse is returned when the script answers with something
// that is not JSON.
var ErrInvalidResponse = eris.New("Invalid response from Google Script")

// Client reads and appends spreadsheet rows through the script.
type Client interface {
	FetchSheet(ctx context.Context, sheet string) ([]model.RawRow, error)
	Append(ctx context.Context, row []byte) (json.RawMessage, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	scriptURL string
	http      *http.Client
}

// NewClient creates a client for the script deployed at scriptURL.
func NewClient(scriptURL string, opts ...Option) Client {
	c := &httpClient{
		scriptURL: scriptURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// sheetResponse covers both the plain and the combined payload shapes.
type sheetResponse struct {
	Status         string         `json:"status"`
	Message        string         `json:"message"`
	Data           []model.RawRow `json:"data"`
	Hospitales     []model.RawRow `json:"hospitales"`
	Asociaciones   []model.RawRow `json:"asociaciones"`
	Organizaciones []model.RawRow `json:"organizaciones"`
}

func (c *httpClient) FetchSheet(ctx context.Context, sheet string) ([]model.RawRow, error) {
	u, err := url.Parse(c.scriptURL)
	if err != nil {
		return nil, eris.Wrap(err, "appscript: parse script url")
	}
	q := u.Query()
	q.Set("sheet", sheet)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "appscript: create request")
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp sheetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(ErrInvalidResponse, "appscript: decode sheet")
	}
	if resp.Status == "error" {
		return nil, eris.Errorf("appscript: script error: %s", resp.Message)
	}
	if resp.Data != nil {
		return resp.Data, nil
	}
	return flatten(resp), nil
}

// flatten merges a combined payload, filling Type where the sheet left it blank.
func flatten(resp sheetResponse) []model.RawRow {
	rows := make([]model.RawRow, 0, len(resp.Hospitales)+len(resp.Asociaciones)+len(resp.Organizaciones))
	rows = appendWithType(rows, resp.Hospitales, model.DefaultHospitalType)
	rows = appendWithType(rows, resp.Asociaciones, model.DefaultAssociationType)
	rows = appendWithType(rows, resp.Organizaciones, model.DefaultOrganizationType)
	return rows
}

func appendWithType(dst, src []model.RawRow, defaultType string) []model.RawRow {
	for _, r := range src {
		if r.Type == "" {
			r.Type = defaultType
		}
		dst = append(dst, r)
	}
	return dst
}

func (c *httpClient) Append(ctx context.Context, row []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scriptURL, bytes.NewReader(row))
	if err != nil {
		return nil, eris.Wrap(err, "appscript: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, eris.Wrap(ErrInvalidResponse, "appscript: decode append")
	}
	return json.RawMessage(body), nil
}

func (c *httpClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "appscript: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "appscript: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("appscript: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
