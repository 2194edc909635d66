package middleware

import "net/http"

// Pipe is a composable middleware stage.
type Pipe = func(http.Handler) http.Handler

// Chain composes middleware stages around a handler (outermost first).
func Chain(h http.Handler, pipes ...Pipe) http.Handler {
	for i := len(pipes) - 1; i >= 0; i-- {
		h = pipes[i](h)
	}
	return h
}
