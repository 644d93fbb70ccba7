package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// deadlineWriter drops handler writes once the deadline response was sent.
type deadlineWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	expired  bool
	answered bool
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired || dw.answered {
		return
	}
	dw.answered = true
	dw.ResponseWriter.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	dw.answered = true
	return dw.ResponseWriter.Write(b)
}

// expire marks the writer dead and reports whether the caller still owns the response.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	dw.expired = true
	return !dw.answered
}

// RequestTimeout bounds every request by timeout. The context passed to the
// handler is cancelled at the deadline so Mongo calls stop as well.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			dw := &deadlineWriter{ResponseWriter: w}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
						return
					}
					close(done)
				}()
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case p := <-panicked:
				panic(p)
			case <-ctx.Done():
				if dw.expire() {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					_, _ = w.Write([]byte(`{"error":"Request timeout","code":"TIMEOUT"}`))
				}
			}
		})
	}
}
