package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/docview/internal/parser"
	"github.com/dgallion1/docview/internal/source"
	"github.com/dgallion1/docview/internal/transform"
	"github.com/dgallion1/docview/internal/viewer"
)

// loadingHTML is the indicator shown until a view is ready.
const loadingHTML = `<p>Loading...</p>`

// handleView renders the requested page synchronously and returns the
// fragment. Failures are reported rather than left loading.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	req := viewer.ResolveRequest(r.URL)
	view, err := s.loader.LoadAndRender(r.Context(), req)
	if err != nil {
		code := statusFor(err)
		s.log.Warn("view failed", "page", req.Page, "status", code, "error", err)
		jsonError(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Hash", view.ContentHash)
	io.WriteString(w, view.HTML)
}

func statusFor(err error) int {
	var syn *parser.SyntaxError
	var verr *transform.ValidationError
	switch {
	case errors.Is(err, source.ErrInvalidPage):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &syn), errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
