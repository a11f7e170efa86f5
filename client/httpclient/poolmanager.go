package httpclient

import (
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"syscall"

	"go.ntppool.org/common/logger"
)

// PoolFlusherTransport drops idle connections after TLS or connection
// errors, so a restarted endpoint is dialled fresh. Requests without a
// body are retried once.
type PoolFlusherTransport struct {
	*http.Transport
	log *slog.Logger
}

func NewPoolFlusherTransport(transport *http.Transport) *PoolFlusherTransport {
	return &PoolFlusherTransport{
		Transport: transport,
		log:       logger.Setup().WithGroup("pool-flusher"),
	}
}

func (pft *PoolFlusherTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := pft.Transport.RoundTrip(req)
	if err == nil || !shouldFlushConnections(err) {
		return resp, err
	}

	ctx := req.Context()
	pft.log.InfoContext(ctx, "connection error, flushing connection pool",
		"url", req.URL.String(), "err", err)
	pft.Transport.CloseIdleConnections()

	if req.Body == nil || req.Body == http.NoBody {
		pft.log.DebugContext(ctx, "retrying request after pool flush")
		return pft.Transport.RoundTrip(req)
	}
	return resp, err
}

func shouldFlushConnections(err error) bool {
	return isTLSError(err) || isConnectionError(err)
}

func isTLSError(err error) bool {
	var tlsErr *tls.RecordHeaderError
	if errors.As(err, &tlsErr) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "tls:") ||
		strings.Contains(msg, "x509:")
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset")
}
