package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraprotocol/diamond/client/api"
	"github.com/auraprotocol/diamond/cutlog"
	"github.com/auraprotocol/diamond/diamond"
	"github.com/auraprotocol/diamond/invoke"
	"github.com/auraprotocol/diamond/server"
	"github.com/auraprotocol/diamond/server/jwt"
)

const key = "api-test-key"

var (
	owner = diamond.MustParseAddress("0x00000000000000000000000000000000000000ee")
	facet = diamond.MustParseAddress("0x00000000000000000000000000000000000000a1")
	pause = diamond.SelectorFromSignature("pause()")
)

func TestClient(t *testing.T) {
	ctx := context.Background()

	store, err := cutlog.Open(t.TempDir())
	require.NoError(t, err)

	funcs := invoke.NewFuncs()
	funcs.Register(facet, func(ctx context.Context, calldata []byte) ([]byte, error) {
		return []byte("done"), nil
	})

	d, err := diamond.Open(ctx, diamond.WithOwner(owner), diamond.WithStore(store), diamond.WithInvoker(funcs))
	require.NoError(t, err)

	srv := httptest.NewServer(server.New(ctx, d, key).Handler())
	defer srv.Close()

	token, err := jwt.GetToken(key, owner.String(), time.Hour)
	require.NoError(t, err)
	c := api.New(srv.URL, token).WithHTTPClient(srv.Client())

	rec, err := c.Cut(ctx, diamond.Batch{Cuts: []diamond.FacetCut{{
		Action: diamond.Add, Facet: facet, Selectors: []diamond.Selector{pause},
	}}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Seq)

	facets, err := c.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, d.Loupe().Facets(), facets)

	addrs, err := c.FacetAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []diamond.Address{facet}, addrs)

	sels, err := c.FacetSelectors(ctx, facet)
	require.NoError(t, err)
	assert.Equal(t, []diamond.Selector{pause}, sels)

	got, ok, err := c.FacetAddress(ctx, pause)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, facet, got)

	_, ok, err = c.FacetAddress(ctx, diamond.SelectorFromSignature("unpause()"))
	require.NoError(t, err)
	assert.False(t, ok)

	out, err := c.Dispatch(ctx, pause[:])
	require.NoError(t, err)
	assert.Equal(t, []byte("done"), out)

	_, err = c.Dispatch(ctx, []byte{1, 2, 3, 4})
	assert.True(t, errors.Is(err, api.ErrNotFound))

	_, err = c.Cut(ctx, diamond.Batch{Cuts: []diamond.FacetCut{{
		Action: diamond.Add, Facet: facet, Selectors: []diamond.Selector{pause},
	}}})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "SelectorAlreadyExists", apiErr.Kind)

	next := diamond.MustParseAddress("0x0000000000000000000000000000000000000042")
	_, err = c.TransferOwnership(ctx, next)
	require.NoError(t, err)

	o, err := c.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, o.Owner)
	assert.Equal(t, uint64(2), o.Seq)

	hist, err := c.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, diamond.RecordOwnership, hist[0].Kind)

	_, err = api.New(srv.URL, "").WithHTTPClient(srv.Client()).TransferOwnership(ctx, owner)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
