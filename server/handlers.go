package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/diamond"
)

const (
	defaultHistory = 50
	maxHistory     = 1000
	maxCalldata    = 1 << 20
)

type selectorResponse struct {
	Selector diamond.Selector `json:"selector"`
	Facet    diamond.Address  `json:"facet"`
}

type ownerResponse struct {
	Owner diamond.Address `json:"owner"`
	Seq   uint64          `json:"seq"`
}

type ownerRequest struct {
	Owner diamond.Address `json:"owner"`
}

func (srv *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "seq": srv.d.Seq()})
}

func (srv *Server) facets(c echo.Context) error {
	facets := srv.d.Loupe().Facets()
	if facets == nil {
		facets = []diamond.Facet{}
	}
	return c.JSON(http.StatusOK, facets)
}

func (srv *Server) facetAddresses(c echo.Context) error {
	addrs := srv.d.Loupe().FacetAddresses()
	if addrs == nil {
		addrs = []diamond.Address{}
	}
	return c.JSON(http.StatusOK, addrs)
}

func (srv *Server) facetSelectors(c echo.Context) error {
	facet, err := diamond.ParseAddress(c.Param("facet"))
	if err != nil {
		return badRequest(c, err)
	}
	sels := srv.d.Loupe().FacetSelectors(facet)
	if sels == nil {
		sels = []diamond.Selector{}
	}
	return c.JSON(http.StatusOK, sels)
}

func (srv *Server) facetAddress(c echo.Context) error {
	sel, err := diamond.ParseSelector(c.Param("selector"))
	if err != nil {
		return badRequest(c, err)
	}
	facet, ok := srv.d.Loupe().FacetAddress(sel)
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "selector not routed", Selector: &sel})
	}
	return c.JSON(http.StatusOK, selectorResponse{Selector: sel, Facet: facet})
}

func (srv *Server) owner(c echo.Context) error {
	return c.JSON(http.StatusOK, ownerResponse{Owner: srv.d.Owner(), Seq: srv.d.Seq()})
}

func (srv *Server) history(c echo.Context) error {
	limit := defaultHistory
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return badRequest(c, fmt.Errorf("invalid limit %q", s))
		}
		limit = min(n, maxHistory)
	}

	recs, err := srv.d.History(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	if recs == nil {
		recs = []*diamond.Record{}
	}
	return c.JSON(http.StatusOK, recs)
}

func (srv *Server) cut(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	var batch diamond.Batch
	if err := c.Bind(&batch); err != nil {
		return badRequest(c, errors.New("invalid cut request"))
	}
	// a null target without calldata means no init call
	if batch.Init != nil && batch.Init.Target.IsZero() && len(batch.Init.Calldata) == 0 {
		batch.Init = nil
	}

	caller := getCaller(c)
	rec, err := srv.d.SubmitCut(ctx, caller, batch)
	if err != nil {
		log.InfoContext(ctx, "cut refused", "caller", caller, "err", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (srv *Server) transferOwnership(c echo.Context) error {
	ctx := c.Request().Context()

	var req ownerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, errors.New("invalid owner request"))
	}

	rec, err := srv.d.TransferOwnership(ctx, getCaller(c), req.Owner)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (srv *Server) dispatch(c echo.Context) error {
	ctx := c.Request().Context()

	calldata, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCalldata+1))
	if err != nil {
		return badRequest(c, err)
	}
	if len(calldata) > maxCalldata {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "calldata too large"})
	}

	out, err := srv.d.Dispatch(ctx, calldata)
	if err != nil {
		resp := errorResponse{Error: err.Error()}
		if errors.Is(err, diamond.ErrFunctionNotFound) {
			return c.JSON(http.StatusNotFound, resp)
		}
		return c.JSON(http.StatusBadGateway, resp)
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, out)
}
