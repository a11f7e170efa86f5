// Package api is a client for the registry HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/auraprotocol/diamond/client/httpclient"
	"github.com/auraprotocol/diamond/diamond"
	"github.com/auraprotocol/diamond/version"
)

var ErrNotFound = errors.New("not found")

// Error is an error response from the API.
type Error struct {
	StatusCode int
	Message    string `json:"error"`
	Kind       string `json:"kind,omitempty"`
}

func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Client struct {
	base   string
	token  string
	client *http.Client
}

// New returns a client for the API at baseURL. token is only needed for
// cut and ownership requests.
func New(baseURL, token string) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		token:  token,
		client: httpclient.New(0),
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

type Owner struct {
	Owner diamond.Address `json:"owner"`
	Seq   uint64          `json:"seq"`
}

func (c *Client) Facets(ctx context.Context) ([]diamond.Facet, error) {
	var out []diamond.Facet
	return out, c.getJSON(ctx, "/v1/facets", &out)
}

func (c *Client) FacetAddresses(ctx context.Context) ([]diamond.Address, error) {
	var out []diamond.Address
	return out, c.getJSON(ctx, "/v1/facets/addresses", &out)
}

func (c *Client) FacetSelectors(ctx context.Context, facet diamond.Address) ([]diamond.Selector, error) {
	var out []diamond.Selector
	return out, c.getJSON(ctx, "/v1/facets/"+facet.String()+"/selectors", &out)
}

// FacetAddress returns the facet routing sel, or false when unrouted.
func (c *Client) FacetAddress(ctx context.Context, sel diamond.Selector) (diamond.Address, bool, error) {
	var out struct {
		Facet diamond.Address `json:"facet"`
	}
	err := c.getJSON(ctx, "/v1/selectors/"+sel.String(), &out)
	if errors.Is(err, ErrNotFound) {
		return diamond.Address{}, false, nil
	}
	if err != nil {
		return diamond.Address{}, false, err
	}
	return out.Facet, true, nil
}

func (c *Client) Owner(ctx context.Context) (Owner, error) {
	var out Owner
	return out, c.getJSON(ctx, "/v1/owner", &out)
}

func (c *Client) History(ctx context.Context, limit int) ([]*diamond.Record, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []*diamond.Record
	return out, c.getJSON(ctx, "/v1/history?"+q.Encode(), &out)
}

func (c *Client) Cut(ctx context.Context, batch diamond.Batch) (*diamond.Record, error) {
	rec := &diamond.Record{}
	if err := c.postJSON(ctx, "/v1/cut", batch, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) TransferOwnership(ctx context.Context, newOwner diamond.Address) (*diamond.Record, error) {
	rec := &diamond.Record{}
	req := struct {
		Owner diamond.Address `json:"owner"`
	}{newOwner}
	if err := c.postJSON(ctx, "/v1/owner", req, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) Dispatch(ctx context.Context, calldata []byte) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/dispatch", bytes.NewReader(calldata))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	js, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(js))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "diamondctl/"+version.VersionInfo().Version)
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}
	return body, nil
}
