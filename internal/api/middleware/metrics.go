package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lending-engine/internal/infrastructure/monitoring"
)

// Metrics records request counts and latencies into the monitoring
// registry. Requests are labelled by chi route pattern, not raw path,
// so loan and customer IDs do not blow up label cardinality.
func Metrics() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			monitoring.RecordHTTPRequest(r.Method, route, ww.Status(), time.Since(start))
		})
	}
}
