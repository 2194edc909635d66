package api

import (
	"net/http"

	"github.com/corkboard/corkboard/internal/store"
)

// listUsers returns all accounts without password hashes. Access is a
// rule-table concern; the default rules reserve this route for admins.
func (a *API) listUsers(res http.ResponseWriter, req *http.Request) {
	users, err := a.store.Users(req.Context())
	if err != nil {
		a.logger.Error("User listing failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Could not list users.")
		return
	}
	if users == nil {
		users = []store.User{}
	}
	writeJSON(res, http.StatusOK, users)
}
