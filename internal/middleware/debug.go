package middleware

import (
	"log/slog"
	"net/http"

	"github.com/corkboard/corkboard/internal/debuglog"
)

// statusWriter captures the response status for diagnostics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Debug attaches a diagnostics recorder to every request and flushes it
// once the response is written. It sits outermost so all later stages
// can append to the record.
func Debug(logger *slog.Logger) Pipe {
	logger = logger.With("name", "middleware.Debug")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			ctx, rec := debuglog.Attach(req.Context())
			rec.Add("method", req.Method, "path", req.URL.Path)

			sw := &statusWriter{ResponseWriter: res}
			defer func() {
				status := sw.status
				if status == 0 {
					status = http.StatusOK
				}
				rec.Add("status", status)
				rec.Flush(logger, "Request handled")
			}()

			next.ServeHTTP(sw, req.WithContext(ctx))
		})
	}
}
