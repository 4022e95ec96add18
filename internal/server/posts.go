package server

import (
	"net/http"
	"strconv"
	"strings"

	"chattala/pkg/app"
	"chattala/pkg/domain"
	"chattala/pkg/store"
)

func postFilterFromQuery(r *http.Request) store.PostFilter {
	q := r.URL.Query()
	f := store.PostFilter{
		CategoryID: q.Get("categoryId"),
		Search:     q.Get("q"),
		Sort:       q.Get("sort"),
	}
	if v := q.Get("verified"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Verified = &b
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	return f
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		posts, err := s.app.ListPosts(r.Context(), postFilterFromQuery(r))
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": posts,
			"count": len(posts),
		})
	case http.MethodPost:
		if !s.allowMutate(w, r) {
			return
		}
		account, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req app.PostInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		post, err := s.app.CreatePost(r.Context(), &account, req)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, post)
	default:
		methodNotAllowed(w)
	}
}

// handlePostByID dispatches /api/posts/{id} and its sub-resources,
// /comments and /flags.
func (s *Server) handlePostByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(sub, "/") {
		http.NotFound(w, r)
		return
	}
	switch sub {
	case "":
		s.postResource(w, r, id)
	case "comments":
		s.postComments(w, r, id)
	case "flags":
		s.postFlags(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) postResource(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		post, err := s.app.GetPost(r.Context(), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	case http.MethodPatch:
		account, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req app.PostUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		post, err := s.app.UpdatePost(r.Context(), &account, id, req)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	case http.MethodDelete:
		account, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := s.app.DeletePost(r.Context(), &account, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) postComments(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		comments, err := s.app.ListComments(r.Context(), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": comments,
			"count": len(comments),
		})
	case http.MethodPost:
		if !s.allowMutate(w, r) {
			return
		}
		account, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		comment, err := s.app.CreateComment(r.Context(), &account, id, req.Content)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) postFlags(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	account, ok := s.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Flag  domain.PostFlag `json:"flag"`
		Value bool            `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	post, err := s.app.TogglePost(r.Context(), &account, id, req.Flag, req.Value)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
