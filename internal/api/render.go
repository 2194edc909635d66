package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(res http.ResponseWriter, status int, v any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	_ = json.NewEncoder(res).Encode(v)
}

// writeError sends a JSON error object.
func writeError(res http.ResponseWriter, status int, msg string) {
	writeJSON(res, status, map[string]string{"error": msg})
}

// readJSON decodes the request body into v.
func readJSON(req *http.Request, v any) error {
	defer func() { _ = req.Body.Close() }()
	return json.NewDecoder(req.Body).Decode(v)
}
