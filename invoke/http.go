// Package invoke has diamond.Invoker implementations: facets reached over
// HTTP and facets implemented as Go functions.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/client/httpclient"
	"github.com/auraprotocol/diamond/client/metrics"
	"github.com/auraprotocol/diamond/diamond"
)

const (
	HeaderSelector = "X-Diamond-Selector"
	HeaderFacet    = "X-Diamond-Facet"

	// maxResponse bounds how much of a facet response is read.
	maxResponse = 4 << 20
)

var ErrNoEndpoint = errors.New("no endpoint for facet")

// HTTP invokes facets by POSTing the calldata to {endpoint}/invoke.
type HTTP struct {
	client *http.Client

	mu        sync.RWMutex
	endpoints map[diamond.Address]string
}

// NewHTTP returns an invoker for the given facet endpoints. A nil client
// uses a traced default client.
func NewHTTP(client *http.Client, endpoints map[diamond.Address]string) *HTTP {
	if client == nil {
		client = httpclient.New(0)
	}
	h := &HTTP{client: client, endpoints: map[diamond.Address]string{}}
	for a, e := range endpoints {
		h.endpoints[a] = strings.TrimRight(e, "/")
	}
	return h
}

// SetEndpoint adds or replaces the endpoint of facet.
func (h *HTTP) SetEndpoint(facet diamond.Address, endpoint string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.endpoints[facet] = strings.TrimRight(endpoint, "/")
}

func (h *HTTP) endpoint(facet diamond.Address) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.endpoints[facet]
	return e, ok
}

// Invoke implements diamond.Invoker.
func (h *HTTP) Invoke(ctx context.Context, facet diamond.Address, calldata []byte) ([]byte, error) {
	log := logger.FromContext(ctx)

	endpoint, ok := h.endpoint(facet)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoEndpoint, facet)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/invoke", bytes.NewReader(calldata))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(HeaderFacet, facet.String())
	if sel, ok := diamond.SelectorOf(calldata); ok {
		req.Header.Set(HeaderSelector, sel.String())
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		metrics.RecordFacetCall(ctx, facet.String(), "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("invoke %s: %w", facet, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("invoke %s: read response: %w", facet, err)
	}

	result := "ok"
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result = strconv.Itoa(resp.StatusCode)
	}
	metrics.RecordFacetCall(ctx, facet.String(), result, time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.DebugContext(ctx, "facet call failed", "facet", facet, "status", resp.StatusCode)
		return nil, &StatusError{Facet: facet, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}

// StatusError is returned when a facet endpoint answers with a non-2xx
// status.
type StatusError struct {
	Facet      diamond.Address
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("facet %s: http status %d", e.Facet, e.StatusCode)
	}
	return fmt.Sprintf("facet %s: http status %d: %s", e.Facet, e.StatusCode, e.Body)
}
