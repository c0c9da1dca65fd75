package ui

import (
	"net/http"
	"strings"
)

// getPrefixSearch serves /{schema}/{table}/{column}/{prefix}. Every
// identifier is resolved against the catalog before it reaches SQL, so
// an unknown name is a 404 and never a query.
func (h *Handler) getPrefixSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 {
		h.writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	schema, table, column, prefix := parts[0], parts[1], parts[2], parts[3]

	limit, offset, err := h.pageParams(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tbl, err := h.Store.Catalog.LookupColumn(schema, table, column)
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	rows, err := h.Store.SelectPrefix(r.Context(), tbl, column, prefix, nil, limit, offset)
	if err != nil {
		h.Logger.Error(r.Context(), "Prefix search on %s failed: %v", tbl.Qualified(), err)
		h.writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}

	observeSearch(tbl.Schema, tbl.Name, len(rows))
	h.writeJSON(w, r, http.StatusOK, rows)
}
