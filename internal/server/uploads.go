package server

import (
	"net/http"
	"path"
	"strings"

	"chattala/internal/util"
	"chattala/pkg/domain"
)

var uploadFolders = map[string]bool{
	"listings": true,
	"posts":    true,
	"avatars":  true,
}

// handleUpload accepts a multipart image upload and stores it in the
// object store. The response carries the public URL the client then
// references from a listing or post.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, account domain.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.images == nil {
		writeError(w, http.StatusServiceUnavailable, "uploads not configured")
		return
	}
	if account.Suspended {
		writeError(w, http.StatusForbidden, "account suspended")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or malformed form")
		return
	}

	folder := r.FormValue("folder")
	if !uploadFolders[folder] {
		writeError(w, http.StatusBadRequest, "folder must be one of listings, posts, avatars")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "only image uploads are accepted")
		return
	}

	ext := strings.ToLower(path.Ext(header.Filename))
	key := folder + "/" + util.NewID() + ext
	url, err := s.images.Put(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"key": key,
		"url": url,
	})
}
