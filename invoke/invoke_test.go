package invoke

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraprotocol/diamond/diamond"
)

var (
	facetA = diamond.MustParseAddress("0x00000000000000000000000000000000000000a1")
	facetB = diamond.MustParseAddress("0x00000000000000000000000000000000000000b2")
)

func TestHTTPInvoke(t *testing.T) {
	var gotSelector, gotFacet, gotPath string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSelector = r.Header.Get(HeaderSelector)
		gotFacet = r.Header.Get(HeaderFacet)
		gotBody, _ = io.ReadAll(r.Body)
		if gotSelector == "0xdeadbeef" {
			http.Error(w, "reverted", http.StatusUnprocessableEntity)
			return
		}
		w.Write([]byte{0x01, 0x02})
	}))
	defer srv.Close()

	h := NewHTTP(srv.Client(), map[diamond.Address]string{facetA: srv.URL + "/"})
	ctx := context.Background()

	call := []byte{0x84, 0x56, 0xcb, 0x59, 0xff}
	out, err := h.Invoke(ctx, facetA, call)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, out)
	assert.Equal(t, "/invoke", gotPath)
	assert.Equal(t, "0x8456cb59", gotSelector)
	assert.Equal(t, facetA.String(), gotFacet)
	assert.Equal(t, call, gotBody)

	_, err = h.Invoke(ctx, facetA, []byte{0xde, 0xad, 0xbe, 0xef})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, "reverted", se.Body)

	_, err = h.Invoke(ctx, facetB, call)
	assert.ErrorIs(t, err, ErrNoEndpoint)

	h.SetEndpoint(facetB, srv.URL)
	_, err = h.Invoke(ctx, facetB, call)
	assert.NoError(t, err)
}

func TestFuncsAndChain(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	local := NewFuncs()
	local.Register(facetA, func(ctx context.Context, calldata []byte) ([]byte, error) {
		return append([]byte("a:"), calldata...), nil
	})
	other := NewFuncs()
	other.Register(facetB, func(ctx context.Context, calldata []byte) ([]byte, error) {
		return nil, boom
	})

	out, err := local.Invoke(ctx, facetA, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a:x"), out)

	_, err = local.Invoke(ctx, facetB, nil)
	assert.ErrorIs(t, err, ErrNoEndpoint)

	chain := Chain{local, other}
	out, err = chain.Invoke(ctx, facetA, []byte("y"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a:y"), out)

	_, err = chain.Invoke(ctx, facetB, nil)
	assert.ErrorIs(t, err, boom)

	_, err = chain.Invoke(ctx, diamond.Address{}, nil)
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestHTTPAsDiamondInvoker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("paused"))
	}))
	defer srv.Close()

	owner := diamond.MustParseAddress("0x00000000000000000000000000000000000000ee")
	h := NewHTTP(nil, map[diamond.Address]string{facetA: srv.URL})

	d, err := diamond.Open(context.Background(), diamond.WithOwner(owner), diamond.WithInvoker(h))
	require.NoError(t, err)

	pause := diamond.SelectorFromSignature("pause()")
	_, err = d.SubmitCut(context.Background(), owner, diamond.Batch{Cuts: []diamond.FacetCut{
		{Action: diamond.Add, Facet: facetA, Selectors: []diamond.Selector{pause}},
	}})
	require.NoError(t, err)

	out, err := d.Dispatch(context.Background(), pause[:])
	require.NoError(t, err)
	assert.Equal(t, []byte("paused"), out)
}
