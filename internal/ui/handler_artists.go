package ui

import (
	"net/http"
	"strings"

	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
)

// getArtists serves /imdb/artists/{name}, the stable resource name in
// front of imdbraw.name_basics. Matching is by primary_name prefix.
func (h *Handler) getArtists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/imdb/artists/")
	if name == "" || strings.Contains(name, "/") {
		h.writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	limit, offset, err := h.pageParams(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tbl, err := h.Store.Catalog.Lookup(stage.SchemaImdb, "name_basics")
	if err != nil {
		h.Logger.Error(r.Context(), "Artist table missing from catalog: %v", err)
		h.writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}

	rows, err := h.Store.SelectPrefix(r.Context(), tbl, "primary_name", name, nil, limit, offset)
	if err != nil {
		h.Logger.Error(r.Context(), "Artist search failed: %v", err)
		h.writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}

	observeSearch(tbl.Schema, tbl.Name, len(rows))
	h.writeJSON(w, r, http.StatusOK, rows)
}
