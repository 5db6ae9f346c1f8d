package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"personalblog/app/middleware"
	"personalblog/app/models"
	"personalblog/app/services"
	"personalblog/app/views"

	"github.com/gorilla/mux"
)

// base carries what every controller needs to answer a request.
type base struct {
	views *views.Renderer
	log   *slog.Logger
}

// wantsJSON reports whether the response should be JSON rather than HTML.
func wantsJSON(r *http.Request) bool {
	return middleware.IsAPI(r) || strings.HasPrefix(r.Header.Get("Accept"), "application/json")
}

// viewer returns the requester resolved by the session middleware.
func viewer(r *http.Request) models.Identity {
	return middleware.IdentityFrom(r.Context())
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	return id, err == nil && id > 0
}

func postURL(id int) string {
	return "/posts/" + strconv.Itoa(id)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (b *base) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.log.Error("failed to encode response", "error", err)
	}
}

func (b *base) render(w http.ResponseWriter, r *http.Request, status int, page string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := b.views.Render(w, page, data); err != nil {
		b.log.Error("failed to render page", "page", page, "error", err)
	}
}

func (b *base) sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if wantsJSON(r) {
		b.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	b.render(w, r, status, "error", struct {
		views.Page
		Status     int
		StatusText string
		Message    string
	}{
		Page:       views.Page{Viewer: viewer(r)},
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    message,
	})
}

func (b *base) sendValidationError(w http.ResponseWriter, verr *services.ValidationError) {
	b.sendJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":  "invalid input",
		"fields": verr.Fields,
	})
}

// fail translates a service error into a response. Browsers that are refused
// for not owning the post are sent back to it, unchanged.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error, postID int) {
	api := wantsJSON(r)
	switch {
	case errors.Is(err, services.ErrNotFound):
		b.sendError(w, r, "Not found", http.StatusNotFound)
	case errors.Is(err, services.ErrAuthentication):
		if api {
			b.sendError(w, r, "Authentication required", http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, middleware.LoginURL(r.URL.RequestURI()), http.StatusFound)
	case errors.Is(err, services.ErrPermission):
		if api || postID == 0 {
			b.sendError(w, r, "Only the author of the post may do that", http.StatusForbidden)
			return
		}
		http.Redirect(w, r, postURL(postID), http.StatusFound)
	default:
		if verr, ok := services.IsValidation(err); ok {
			if api {
				b.sendValidationError(w, verr)
				return
			}
			b.sendError(w, r, verr.Error(), http.StatusUnprocessableEntity)
			return
		}
		b.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		b.sendError(w, r, "Internal Server Error", http.StatusInternalServerError)
	}
}
