package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/diamond"
	"github.com/auraprotocol/diamond/server/jwt"
)

const callerKey = "diamond.caller"

// requireCaller authenticates the bearer token and stores the caller
// address. Whether the caller may act is decided by the registry.
func (srv *Server) requireCaller(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := logger.FromContext(ctx)

		if len(srv.key) == 0 {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "admin api is not configured"})
		}

		tokenString, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		}

		caller, err := jwt.Verify(srv.key, tokenString)
		if err != nil {
			log.WarnContext(ctx, "JWT authentication failed", "err", err)
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		}

		log.DebugContext(ctx, "JWT authentication successful", "caller", caller)
		c.Set(callerKey, caller)
		return next(c)
	}
}

func getCaller(c echo.Context) diamond.Address {
	caller, _ := c.Get(callerKey).(diamond.Address)
	return caller
}
