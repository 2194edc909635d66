package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/corkboard/corkboard/internal/session"
	"github.com/corkboard/corkboard/internal/store"
	"github.com/go-chi/chi/v5"
)

// postRequest carries create and update bodies.
type postRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required,max=10000"`
	Author   string `json:"author" validate:"max=100"`
	Category string `json:"category"`
}

// pathID parses the {id} route parameter.
func pathID(req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (a *API) listPosts(res http.ResponseWriter, req *http.Request) {
	category := req.URL.Query().Get("category")
	if !validCategory(category) {
		writeError(res, http.StatusBadRequest, "Invalid category.")
		return
	}

	posts, err := a.store.Posts(req.Context(), category)
	if err != nil {
		a.logger.Error("Post listing failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Could not list posts.")
		return
	}
	if posts == nil {
		posts = []store.Post{}
	}
	writeJSON(res, http.StatusOK, posts)
}

func (a *API) getPost(res http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		writeError(res, http.StatusBadRequest, "Invalid post id.")
		return
	}

	post, err := a.store.Post(req.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(res, http.StatusNotFound, "Post not found.")
			return
		}
		a.logger.Error("Post lookup failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Could not load post.")
		return
	}
	writeJSON(res, http.StatusOK, post)
}

func (a *API) createPost(res http.ResponseWriter, req *http.Request) {
	body, ok := a.readPost(res, req)
	if !ok {
		return
	}

	// Signed-in authors are attributed by their session, not by what
	// the body claims.
	author := body.Author
	if id := session.FromContext(req.Context()); !id.Anonymous() {
		author = id.Subject
	}
	if author == "" {
		writeError(res, http.StatusBadRequest, "Author is required.")
		return
	}

	id, err := a.store.CreatePost(req.Context(), store.Post{
		Title:    sanitize(body.Title),
		Content:  sanitize(body.Content),
		Author:   sanitize(author),
		Category: body.Category,
	})
	if err != nil {
		a.logger.Error("Post creation failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Could not create post.")
		return
	}
	writeJSON(res, http.StatusCreated, map[string]int64{"id": id})
}

func (a *API) updatePost(res http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		writeError(res, http.StatusBadRequest, "Invalid post id.")
		return
	}
	body, ok := a.readPost(res, req)
	if !ok {
		return
	}

	err := a.store.UpdatePost(req.Context(), id, store.Post{
		Title:    sanitize(body.Title),
		Content:  sanitize(body.Content),
		Category: body.Category,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(res, http.StatusNotFound, "Post not found.")
			return
		}
		a.logger.Error("Post update failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Could not update post.")
		return
	}
	res.WriteHeader(http.StatusNoContent)
}

func (a *API) deletePost(res http.ResponseWriter, req *http.Request) {
	id, ok := pathID(req)
	if !ok {
		writeError(res, http.StatusBadRequest, "Invalid post id.")
		return
	}

	if err := a.store.DeletePost(req.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(res, http.StatusNotFound, "Post not found.")
			return
		}
		a.logger.Error("Post deletion failed", "error", err)
		writeError(res, http.StatusInternalServerError, "Could not delete post.")
		return
	}
	res.WriteHeader(http.StatusNoContent)
}

// readPost decodes and validates a post body, writing the error
// response itself on failure.
func (a *API) readPost(res http.ResponseWriter, req *http.Request) (postRequest, bool) {
	var body postRequest
	if err := readJSON(req, &body); err != nil {
		writeError(res, http.StatusBadRequest, "Malformed request body.")
		return postRequest{}, false
	}
	if err := a.validate.Struct(body); err != nil {
		writeError(res, http.StatusBadRequest, "Invalid post fields.")
		return postRequest{}, false
	}
	if !validCategory(body.Category) {
		writeError(res, http.StatusBadRequest, "Invalid category.")
		return postRequest{}, false
	}
	return body, true
}
