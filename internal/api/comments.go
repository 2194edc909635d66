package api

import (
	"errors"
	"net/http"

	"github.com/corkboard/corkboard/internal/session"
	"github.com/corkboard/corkboard/internal/store"
)

// commentRequest carries comment creation bodies.
type commentRequest struct {
	Author  string `json:"author" validate:"max=100"`
	Content string `json:"content" validate:"required,max=4000"`
}

func (a *API) listComments(res http.ResponseWriter, req *http.Request) {
	postID, ok := pathID(req)
	if !ok {
		writeError(res, http.StatusBadRequest, "Invalid post id.")
		return
	}

	comments, err := a.store.Comments(req.Context(), postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(res, http.StatusNotFound, "Post not found.")
			return
		}
		a.logger.Error("Comment listing failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Could not list comments.")
		return
	}
	if comments == nil {
		comments = []store.Comment{}
	}
	writeJSON(res, http.StatusOK, comments)
}

func (a *API) createComment(res http.ResponseWriter, req *http.Request) {
	postID, ok := pathID(req)
	if !ok {
		writeError(res, http.StatusBadRequest, "Invalid post id.")
		return
	}

	var body commentRequest
	if err := readJSON(req, &body); err != nil {
		writeError(res, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := a.validate.Struct(body); err != nil {
		writeError(res, http.StatusBadRequest, "Invalid comment fields.")
		return
	}

	author := body.Author
	if id := session.FromContext(req.Context()); !id.Anonymous() {
		author = id.Subject
	}
	if author == "" {
		writeError(res, http.StatusBadRequest, "Author is required.")
		return
	}

	id, err := a.store.CreateComment(req.Context(), postID, sanitize(author), sanitize(body.Content))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(res, http.StatusNotFound, "Post not found.")
			return
		}
		a.logger.Error("Comment creation failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Could not create comment.")
		return
	}
	writeJSON(res, http.StatusCreated, map[string]int64{"id": id})
}

func (a *API) deleteComment(res http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		writeError(res, http.StatusBadRequest, "Invalid comment id.")
		return
	}

	if err := a.store.DeleteComment(req.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(res, http.StatusNotFound, "Comment not found.")
			return
		}
		a.logger.Error("Comment deletion failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Could not delete comment.")
		return
	}
	res.WriteHeader(http.StatusNoContent)
}
