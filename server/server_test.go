package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraprotocol/diamond/diamond"
	"github.com/auraprotocol/diamond/invoke"
	"github.com/auraprotocol/diamond/server/jwt"
)

const testKey = "server-test-key"

var (
	owner    = diamond.MustParseAddress("0x00000000000000000000000000000000000000ee")
	stranger = diamond.MustParseAddress("0x0000000000000000000000000000000000000bad")
	facetA   = diamond.MustParseAddress("0x00000000000000000000000000000000000000a1")
	initAddr = diamond.MustParseAddress("0x00000000000000000000000000000000000000c1")

	pause   = diamond.SelectorFromSignature("pause()")
	unpause = diamond.SelectorFromSignature("unpause()")
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
	d   *diamond.Diamond
}

func newTestServer(t *testing.T, key string) *testServer {
	t.Helper()
	ctx := context.Background()

	funcs := invoke.NewFuncs()
	funcs.Register(facetA, func(ctx context.Context, calldata []byte) ([]byte, error) {
		return append([]byte("A:"), calldata...), nil
	})
	funcs.Register(initAddr, func(ctx context.Context, calldata []byte) ([]byte, error) {
		if len(calldata) > 0 && calldata[0] == 0xff {
			return nil, errors.New("init reverted")
		}
		return nil, nil
	})

	d, err := diamond.Open(ctx, diamond.WithOwner(owner), diamond.WithInvoker(funcs))
	require.NoError(t, err)

	srv := httptest.NewServer(New(ctx, d, key, WithMetrics(prometheus.NewRegistry())).Handler())
	t.Cleanup(srv.Close)

	return &testServer{t: t, srv: srv, d: d}
}

func (ts *testServer) token(subject diamond.Address) string {
	tok, err := jwt.GetToken(testKey, subject.String(), time.Hour)
	require.NoError(ts.t, err)
	return tok
}

func (ts *testServer) do(method, path, token string, body any) (*http.Response, []byte) {
	ts.t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	default:
		js, err := json.Marshal(b)
		require.NoError(ts.t, err)
		r = bytes.NewReader(js)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, r)
	require.NoError(ts.t, err)
	if _, ok := body.([]byte); !ok && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp, data
}

func addBatch(facet diamond.Address, sels ...diamond.Selector) diamond.Batch {
	return diamond.Batch{Cuts: []diamond.FacetCut{{Action: diamond.Add, Facet: facet, Selectors: sels}}}
}

func TestLoupeEndpoints(t *testing.T) {
	ts := newTestServer(t, testKey)

	resp, body := ts.do(http.MethodGet, "/v1/facets", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	_, err := ts.d.SubmitCut(context.Background(), owner, addBatch(facetA, pause, unpause))
	require.NoError(t, err)

	resp, body = ts.do(http.MethodGet, "/v1/facets", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"facet":"0x00000000000000000000000000000000000000a1","selectors":["0x8456cb59","0x3f4ba83a"]}]`, string(body))

	resp, body = ts.do(http.MethodGet, "/v1/facets/addresses", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `["0x00000000000000000000000000000000000000a1"]`, string(body))

	resp, body = ts.do(http.MethodGet, "/v1/facets/"+facetA.String()+"/selectors", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `["0x8456cb59","0x3f4ba83a"]`, string(body))

	resp, body = ts.do(http.MethodGet, "/v1/facets/"+owner.String()+"/selectors", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = ts.do(http.MethodGet, "/v1/facets/nonsense/selectors", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(http.MethodGet, "/v1/selectors/0x8456cb59", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"selector":"0x8456cb59","facet":"0x00000000000000000000000000000000000000a1"}`, string(body))

	resp, _ = ts.do(http.MethodGet, "/v1/selectors/0x01020304", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = ts.do(http.MethodGet, "/v1/owner", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"owner":"0x00000000000000000000000000000000000000ee","seq":1}`, string(body))

	resp, _ = ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCutEndpoint(t *testing.T) {
	ts := newTestServer(t, testKey)

	resp, _ := ts.do(http.MethodPost, "/v1/cut", "", addBatch(facetA, pause))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "no token")

	resp, _ = ts.do(http.MethodPost, "/v1/cut", "garbage", addBatch(facetA, pause))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "bad token")

	resp, body := ts.do(http.MethodPost, "/v1/cut", ts.token(stranger), addBatch(facetA, pause))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), `"kind":"Unauthorized"`)

	resp, body = ts.do(http.MethodPost, "/v1/cut", ts.token(owner), addBatch(facetA, pause))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var rec diamond.Record
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, uint64(1), rec.Seq)
	assert.Equal(t, owner, rec.Caller)

	resp, body = ts.do(http.MethodPost, "/v1/cut", ts.token(owner), addBatch(facetA, pause))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "SelectorAlreadyExists", errResp.Kind)
	require.NotNil(t, errResp.Selector)
	assert.Equal(t, pause, *errResp.Selector)
	require.NotNil(t, errResp.Op)
	assert.Equal(t, 0, *errResp.Op)

	resp, _ = ts.do(http.MethodPost, "/v1/cut", ts.token(owner), diamond.Batch{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = ts.do(http.MethodPost, "/v1/cut", ts.token(owner), []byte("{"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCutInit(t *testing.T) {
	ts := newTestServer(t, testKey)
	tok := ts.token(owner)

	failing := addBatch(facetA, unpause)
	failing.Init = &diamond.InitCall{Target: initAddr, Calldata: diamond.Calldata{0xff}}
	resp, body := ts.do(http.MethodPost, "/v1/cut", tok, failing)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "init reverted")

	_, routed := ts.d.Resolve(unpause)
	assert.False(t, routed, "failed init leaves no route")

	nullInit := addBatch(facetA, unpause)
	nullInit.Init = &diamond.InitCall{}
	resp, body = ts.do(http.MethodPost, "/v1/cut", tok, nullInit)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestOwnerEndpoint(t *testing.T) {
	ts := newTestServer(t, testKey)

	resp, _ := ts.do(http.MethodPost, "/v1/owner", ts.token(owner), ownerRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = ts.do(http.MethodPost, "/v1/owner", ts.token(stranger), ownerRequest{Owner: stranger})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := ts.do(http.MethodPost, "/v1/owner", ts.token(owner), ownerRequest{Owner: stranger})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, stranger, ts.d.Owner())

	resp, _ = ts.do(http.MethodPost, "/v1/cut", ts.token(stranger), addBatch(facetA, pause))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDispatchEndpoint(t *testing.T) {
	ts := newTestServer(t, testKey)
	_, err := ts.d.SubmitCut(context.Background(), owner, addBatch(facetA, pause))
	require.NoError(t, err)

	call := append(pause[:len(pause):len(pause)], 0x01)
	resp, body := ts.do(http.MethodPost, "/v1/dispatch", "", call)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, append([]byte("A:"), call...), body)

	resp, _ = ts.do(http.MethodPost, "/v1/dispatch", "", unpause[:])
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(http.MethodPost, "/v1/dispatch", "", []byte{0x01})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	ts := newTestServer(t, testKey)

	resp, body := ts.do(http.MethodGet, "/v1/history", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body), "registry without a history store")

	resp, _ = ts.do(http.MethodGet, "/v1/history?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	ts := newTestServer(t, "")
	resp, _ := ts.do(http.MethodPost, "/v1/cut", ts.token(owner), addBatch(facetA, pause))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{diamond.ErrUnauthorized, http.StatusForbidden},
		{diamond.ErrSelectorNotFound, http.StatusConflict},
		{diamond.ErrNestedCut, http.StatusConflict},
		{diamond.ErrDuplicateSelectorInBatch, http.StatusUnprocessableEntity},
		{diamond.ErrInitFailed, http.StatusBadGateway},
		{diamond.ErrStore, http.StatusServiceUnavailable},
		{diamond.ErrFunctionNotFound, http.StatusNotFound},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
