package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"personalblog/app/middleware"
	"personalblog/app/models"
	"personalblog/app/services"
	"personalblog/app/views"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	base
	authService  *services.AuthService
	secureCookie bool
}

// NewAuthController creates a new AuthController. secureCookie marks the
// session cookie HTTPS only.
func NewAuthController(authService *services.AuthService, renderer *views.Renderer, log *slog.Logger, secureCookie bool) *AuthController {
	return &AuthController{
		base:         base{views: renderer, log: log},
		authService:  authService,
		secureCookie: secureCookie,
	}
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type loginPage struct {
	views.Page
	Username string
	Next     string
	Error    string
}

type registerPage struct {
	views.Page
	Username   string
	Email      string
	Registered bool
	Errors     map[string]string
}

func readCredentials(r *http.Request) (credentials, error) {
	var in credentials
	if wantsJSON(r) {
		return in, decodeJSON(r, &in)
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.Username = strings.TrimSpace(r.FormValue("username"))
	in.Email = strings.TrimSpace(r.FormValue("email"))
	in.Password = r.FormValue("password")
	return in, nil
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// RegisterForm displays the sign up form
func (ac *AuthController) RegisterForm(w http.ResponseWriter, r *http.Request) {
	ac.render(w, r, http.StatusOK, "register", registerPage{Page: views.Page{Viewer: viewer(r)}})
}

// Register handles creating an account
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	in, err := readCredentials(r)
	if err != nil {
		ac.sendError(w, r, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := ac.authService.Register(in.Username, in.Email, in.Password)
	if errors.Is(err, services.ErrUsernameTaken) {
		err = &services.ValidationError{Fields: map[string]string{
			"username": "A user with that username already exists.",
		}}
	}
	if err != nil {
		verr, ok := services.IsValidation(err)
		if !ok {
			ac.fail(w, r, err, 0)
			return
		}
		if wantsJSON(r) {
			ac.sendValidationError(w, verr)
			return
		}
		ac.render(w, r, http.StatusUnprocessableEntity, "register", registerPage{
			Page:     views.Page{Viewer: viewer(r)},
			Username: in.Username,
			Email:    in.Email,
			Errors:   verr.Fields,
		})
		return
	}

	if wantsJSON(r) {
		ac.sendJSON(w, http.StatusCreated, user)
		return
	}
	ac.render(w, r, http.StatusOK, "register", registerPage{
		Page:       views.Page{Viewer: viewer(r)},
		Username:   user.Username,
		Registered: true,
	})
}

// LoginForm displays the login form
func (ac *AuthController) LoginForm(w http.ResponseWriter, r *http.Request) {
	ac.render(w, r, http.StatusOK, "login", loginPage{
		Page: views.Page{Viewer: viewer(r)},
		Next: safeNext(r.URL.Query().Get("next")),
	})
}

// Login checks the credentials and sets the session cookie
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	in, err := readCredentials(r)
	if err != nil {
		ac.sendError(w, r, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	next := safeNext(r.FormValue("next"))

	session, err := ac.authService.Login(in.Username, in.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidLogin) {
			ac.fail(w, r, err, 0)
			return
		}
		if wantsJSON(r) {
			ac.sendError(w, r, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		ac.render(w, r, http.StatusOK, "login", loginPage{
			Page:     views.Page{Viewer: models.Anonymous},
			Username: in.Username,
			Next:     next,
			Error:    "Please enter a correct username and password.",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   ac.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if wantsJSON(r) {
		ac.sendJSON(w, http.StatusOK, map[string]interface{}{
			"token":      session.Token,
			"expires_at": session.ExpiresAt,
		})
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout ends the session and clears the cookie
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := ac.authService.Logout(middleware.SessionToken(r)); err != nil {
		ac.fail(w, r, err, 0)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ac.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
