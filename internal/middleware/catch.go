package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Catch wraps a handler and converts panics into a 500 Internal Server Error.
func Catch(logger *slog.Logger) Pipe {
	logger = logger.With("name", "middleware.Catch")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			defer func() {
				// Intercept a panic from downstream handlers.
				if err := recover(); err != nil {
					logger.Error(
						"An unhandled panic occurred",
						"method", req.Method,
						"path", req.URL.Path,
						"error", err,
						"stack", string(debug.Stack()),
					)
					res.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(res, req)
		})
	}
}
