package server

import (
	"net/http"
	"strconv"
	"strings"

	"chattala/pkg/app"
	"chattala/pkg/domain"
	"chattala/pkg/store"
)

func listingFilterFromQuery(r *http.Request) store.ListingFilter {
	q := r.URL.Query()
	f := store.ListingFilter{
		CategoryID: q.Get("categoryId"),
		Search:     q.Get("q"),
		Location:   q.Get("location"),
		Sort:       q.Get("sort"),
	}
	if v := q.Get("minPrice"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &n
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &n
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

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		actor := s.actor(r)
		filter := listingFilterFromQuery(r)
		if actor != nil && actor.Role == domain.RoleAdmin {
			filter.State = domain.ModerationState(r.URL.Query().Get("state"))
		}
		listings, err := s.app.BrowseListings(r.Context(), actor, filter)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": listings,
			"count": len(listings),
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
		var req app.ListingInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		listing, err := s.app.CreateListing(r.Context(), &account, req)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, listing)
	default:
		methodNotAllowed(w)
	}
}

// handleListingByID dispatches /api/listings/{id} and its two
// sub-resources, /sold and /state.
func (s *Server) handleListingByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/listings/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(sub, "/") {
		http.NotFound(w, r)
		return
	}
	switch sub {
	case "":
		s.listingResource(w, r, id)
	case "sold":
		s.listingSold(w, r, id)
	case "state":
		s.listingState(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) listingResource(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		listing, err := s.app.GetListing(r.Context(), s.actor(r), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	case http.MethodPatch:
		account, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req app.ListingUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		listing, err := s.app.UpdateListing(r.Context(), &account, id, req)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	case http.MethodDelete:
		account, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := s.app.DeleteListing(r.Context(), &account, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) listingSold(w http.ResponseWriter, r *http.Request, id string) {
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
		Sold bool `json:"sold"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	listing, err := s.app.SetSold(r.Context(), &account, id, req.Sold)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) listingState(w http.ResponseWriter, r *http.Request, id string) {
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
		State domain.ModerationState `json:"state"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	listing, err := s.app.TransitionListing(r.Context(), &account, id, req.State)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	kind := domain.CategoryKind(r.URL.Query().Get("kind"))
	categories, err := s.app.ListCategories(r.Context(), kind)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": categories,
		"count": len(categories),
	})
}
