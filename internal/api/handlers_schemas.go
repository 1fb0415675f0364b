package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/docview/internal/tagschema"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	tags := make(map[string]tagschema.Schema)
	for _, name := range s.registry.Names() {
		schema, _ := s.registry.Lookup(name)
		tags[name] = schema
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tags": tags})
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	schema, ok := s.registry.Lookup(name)
	if !ok {
		jsonError(w, "unknown tag: "+name, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"name": name, "schema": schema})
}
