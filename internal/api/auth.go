// Copyright (c) 2025-present the Corkboard authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"

	"github.com/corkboard/corkboard/internal/session"
	"github.com/corkboard/corkboard/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hash strength against login latency.
const bcryptCost = 12

// credentialsRequest carries register and login bodies. The username
// charset is restricted to alphanumerics so it can never collide with
// the session token delimiter.
type credentialsRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// authResponse is the signed-in identity as the frontend sees it.
type authResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// register creates an account with the "user" role and starts a session.
func (a *API) register(res http.ResponseWriter, req *http.Request) {
	var body credentialsRequest
	if err := readJSON(req, &body); err != nil {
		writeError(res, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := a.validate.Struct(body); err != nil {
		writeError(res, http.StatusBadRequest, "Invalid username or password format.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcryptCost)
	if err != nil {
		a.logger.Error("Password hashing failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Registration failed.")
		return
	}

	if _, err := a.store.CreateUser(req.Context(), body.Username, string(hash), "user"); err != nil {
		if errors.Is(err, store.ErrExists) {
			writeError(res, http.StatusConflict, "Username is taken.")
			return
		}
		a.logger.Error("User creation failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Registration failed.")
		return
	}

	id := session.Identity{Subject: body.Username, Role: "user"}
	a.codec.Write(res, id)
	writeJSON(res, http.StatusCreated, authResponse{
		Username: id.Subject,
		Role:     id.Role,
	})
}

// login verifies credentials and issues the session cookie.
func (a *API) login(res http.ResponseWriter, req *http.Request) {
	var body credentialsRequest
	if err := readJSON(req, &body); err != nil {
		writeError(res, http.StatusBadRequest, "Malformed request body.")
		return
	}
	// Only presence is checked here; stricter format rules apply at
	// registration and must not lock out older accounts.
	if body.Username == "" || body.Password == "" {
		writeError(res, http.StatusBadRequest, "Username and password are required.")
		return
	}

	user, hash, err := a.store.Credentials(req.Context(), body.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Error("Credential lookup failed", "error", err)
		}
		writeError(res, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)) != nil {
		writeError(res, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	id := session.Identity{Subject: user.Username, Role: user.Role}
	a.codec.Write(res, id)
	writeJSON(res, http.StatusOK, authResponse{
		Username: id.Subject,
		Role:     id.Role,
	})
}

// logout expires the session cookie.
func (a *API) logout(res http.ResponseWriter, _ *http.Request) {
	a.codec.Clear(res)
	res.WriteHeader(http.StatusNoContent)
}

// session reports the current identity, or a JSON error object when
// nobody is signed in. The status is 200 either way; absence of a
// session is not a failure.
func (a *API) session(res http.ResponseWriter, req *http.Request) {
	id := session.FromContext(req.Context())
	if id.Anonymous() {
		writeJSON(res, http.StatusOK, map[string]string{
			"error": "No user is logged in.",
		})
		return
	}
	writeJSON(res, http.StatusOK, authResponse{
		Username: id.Subject,
		Role:     id.Role,
	})
}
