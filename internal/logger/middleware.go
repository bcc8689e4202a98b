package logger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware feeds the HTTP counters from every response and warns about
// requests slower than slowThreshold. A zero threshold disables the check.
func Middleware(slowThreshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			switch {
			case status >= 500:
				ErrorHttp5xx()
			case status >= 400:
				WarnHttp4xx(status)
			}

			if slowThreshold > 0 && elapsed > slowThreshold {
				WarnSlowRequest()
				if shouldSample() {
					Logger.Warn("slow request",
						"method", r.Method,
						"path", r.URL.Path,
						"status", status,
						"elapsed", elapsed.String(),
						"requestId", middleware.GetReqID(r.Context()),
					)
				}
			}
		})
	}
}
