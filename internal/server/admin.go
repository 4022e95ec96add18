package server

import (
	"net/http"
	"strconv"
	"strings"

	"chattala/pkg/app"
	"chattala/pkg/domain"
	"chattala/pkg/store"
)

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request, account domain.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	stats, err := s.app.Stats(r.Context(), &account)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, account domain.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	filter := store.AccountFilter{
		Role:   domain.Role(q.Get("role")),
		Search: q.Get("q"),
	}
	if v := q.Get("verified"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Verified = &b
		}
	}
	if v := q.Get("suspended"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Suspended = &b
		}
	}
	accounts, err := s.app.ListAccounts(r.Context(), &account, filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": accounts,
		"count": len(accounts),
	})
}

type adminUserUpdateRequest struct {
	Role      string `json:"role"`
	Verified  *bool  `json:"verified"`
	Suspended *bool  `json:"suspended"`
}

func (s *Server) handleAdminUserByID(w http.ResponseWriter, r *http.Request, account domain.Account) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req adminUserUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Role == "" && req.Verified == nil && req.Suspended == nil {
		writeError(w, http.StatusBadRequest, "role, verified, or suspended is required")
		return
	}

	var updated domain.Account
	var err error
	if req.Verified != nil {
		if updated, err = s.app.SetAccountVerified(r.Context(), &account, id, *req.Verified); err != nil {
			writeAppError(w, err)
			return
		}
	}
	if req.Suspended != nil {
		if updated, err = s.app.SetAccountSuspended(r.Context(), &account, id, *req.Suspended); err != nil {
			writeAppError(w, err)
			return
		}
	}
	if req.Role != "" {
		role := domain.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
		if updated, err = s.app.SetAccountRole(r.Context(), &account, id, role); err != nil {
			writeAppError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAdminCategories(w http.ResponseWriter, r *http.Request, account domain.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req app.CategoryInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	category, err := s.app.CreateCategory(r.Context(), &account, req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleAdminCategoryByID(w http.ResponseWriter, r *http.Request, account domain.Account) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/categories/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var req app.CategoryUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		category, err := s.app.UpdateCategory(r.Context(), &account, id, req)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	case http.MethodDelete:
		if err := s.app.DeleteCategory(r.Context(), &account, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
