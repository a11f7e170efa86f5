package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/auraprotocol/diamond/diamond"
)

type errorResponse struct {
	Error    string            `json:"error"`
	Kind     string            `json:"kind,omitempty"`
	Op       *int              `json:"op,omitempty"`
	Selector *diamond.Selector `json:"selector,omitempty"`
	Facet    *diamond.Address  `json:"facet,omitempty"`
}

// statusFor maps registry errors to HTTP status codes.
func statusFor(err error) int {
	if errors.Is(err, diamond.ErrFunctionNotFound) {
		return http.StatusNotFound
	}

	switch diamond.KindOf(err) {
	case diamond.KindUnauthorized:
		return http.StatusForbidden
	case diamond.KindSelectorAlreadyExists, diamond.KindSelectorNotFound, diamond.KindNestedCut:
		return http.StatusConflict
	case diamond.KindEmptyBatch,
		diamond.KindDuplicateSelectorInBatch,
		diamond.KindNullModule,
		diamond.KindNoSelectors,
		diamond.KindRemoveFacetNotNull,
		diamond.KindInvalidAction,
		diamond.KindNullOwner:
		return http.StatusUnprocessableEntity
	case diamond.KindInitFailed:
		return http.StatusBadGateway
	case diamond.KindStoreFailed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, err error) error {
	resp := errorResponse{Error: err.Error()}

	var ce *diamond.CutError
	if errors.As(err, &ce) {
		resp.Kind = ce.Kind.String()
		if ce.Op >= 0 {
			op := ce.Op
			resp.Op = &op
		}
		resp.Selector = ce.Selector
		if !ce.Facet.IsZero() {
			facet := ce.Facet
			resp.Facet = &facet
		}
	}

	return c.JSON(statusFor(err), resp)
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
