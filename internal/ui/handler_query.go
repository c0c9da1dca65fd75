package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/donald-f-ferguson/w4111-dataservice/internal/datatable"
)

// getTemplateQuery serves /api/{schema}/{table}/query. Every query
// parameter except limit, offset and fields becomes an exact-match
// template entry, so ?nameLast=Ruth&bats=L means both must hold.
func (h *Handler) getTemplateQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "api" || parts[3] != "query" {
		h.writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	schema, table := parts[1], parts[2]

	limit, offset, err := h.pageParams(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var fields []string
	if s := r.URL.Query().Get("fields"); s != "" {
		for _, f := range strings.Split(s, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}

	template := map[string]string{}
	for k, vs := range r.URL.Query() {
		switch k {
		case "limit", "offset", "fields":
			continue
		}
		if len(vs) > 0 {
			template[k] = vs[0]
		}
	}

	tbl, err := datatable.NewRDBTable(h.Store, schema, table, nil)
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	rows, err := tbl.FindByTemplate(r.Context(), template, fields, limit, offset)
	if err != nil {
		if errors.Is(err, datatable.ErrUnknownField) {
			h.writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		h.Logger.Error(r.Context(), "Template query on %s failed: %v", tbl.Table.Qualified(), err)
		h.writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}

	total, err := h.Store.CountWhere(r.Context(), tbl.Table, template)
	if err != nil {
		h.Logger.Error(r.Context(), "Count on %s failed: %v", tbl.Table.Qualified(), err)
		h.writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}

	observeSearch(tbl.Table.Schema, tbl.Table.Name, len(rows))
	h.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"data": rows,
		"pagination": map[string]interface{}{
			"limit":      limit,
			"offset":     offset,
			"totalCount": total,
		},
	})
}
