package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"hydrosnap-client/pkg/api"
)

// deferredWriter buffers a handler's response so nothing touches the
// real connection until the deadline race is decided. Only the handler
// goroutine writes to it; the middleware reads it only after the
// handler's done signal, so a handler that overruns its deadline keeps
// scribbling into an orphaned buffer instead of racing the 408.
type deferredWriter struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newDeferredWriter() *deferredWriter {
	return &deferredWriter{header: make(http.Header), status: http.StatusOK}
}

func (w *deferredWriter) Header() http.Header { return w.header }

func (w *deferredWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
}

func (w *deferredWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.body.Write(b)
}

func (w *deferredWriter) flushTo(dst http.ResponseWriter) {
	for key, values := range w.header {
		dst.Header()[key] = values
	}
	dst.WriteHeader(w.status)
	_, _ = dst.Write(w.body.Bytes())
}

// Timeout bounds each request with a deadline. Handlers observe it
// through the request context; one that overruns gets a 408 and its
// buffered output is discarded.
func Timeout(timeout time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)
			buffered := newDeferredWriter()
			done := make(chan struct{})

			go func() {
				defer close(done)
				defer func() {
					if err := recover(); err != nil {
						logger.Error("Panic in timed request handler",
							zap.String("request_id", GetRequestIDFromRequest(r)),
							zap.Any("panic", err))
						if !buffered.wroteHeader {
							api.Error(buffered, http.StatusInternalServerError, "Internal server error")
						}
					}
				}()
				next.ServeHTTP(buffered, r)
			}()

			select {
			case <-done:
				buffered.flushTo(w)
			case <-ctx.Done():
				logger.Warn("Request timed out",
					zap.String("request_id", GetRequestIDFromRequest(r)),
					zap.String("path", r.URL.Path))
				api.Error(w, http.StatusRequestTimeout, "Request timeout")
			}
		})
	}
}
