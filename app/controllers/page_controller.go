package controllers

import (
	"log/slog"
	"net/http"

	"personalblog/app/views"
)

// PageController serves pages with no model behind them.
type PageController struct {
	base
}

// NewPageController creates a new PageController
func NewPageController(renderer *views.Renderer, log *slog.Logger) *PageController {
	return &PageController{base: base{views: renderer, log: log}}
}

// About displays the about page
func (pc *PageController) About(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, http.StatusOK, "about", struct{ views.Page }{views.Page{Viewer: viewer(r)}})
}

// NotFound answers unknown paths in the format the client expects.
func (pc *PageController) NotFound(w http.ResponseWriter, r *http.Request) {
	pc.sendError(w, r, "Page not found", http.StatusNotFound)
}
