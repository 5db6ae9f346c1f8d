// Package routes wires the services and controllers onto a gorilla/mux router.
package routes

import (
	"log/slog"
	"net/http"
	"time"

	"personalblog/app/controllers"
	"personalblog/app/metrics"
	"personalblog/app/middleware"
	"personalblog/app/repositories"
	"personalblog/app/services"
	"personalblog/app/views"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// Options tunes the router. Zero values fall back to sensible defaults.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	SessionLifetime time.Duration
	CookieSecure    bool
	BcryptCost      int

	// CommentsPerMinute and CommentBurst bound anonymous comment submissions per IP.
	CommentsPerMinute float64
	CommentBurst      int

	// StaticDir serves /static/ from disk instead of the embedded assets.
	StaticDir string

	Clock func() time.Time
}

// App is the assembled web application.
type App struct {
	Router   *mux.Router
	Posts    *services.PostService
	Comments *services.CommentService
	Auth     *services.AuthService
	Metrics  *metrics.Metrics
}

// New builds the services on top of store and registers every route.
func New(store repositories.Store, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.CommentsPerMinute <= 0 {
		opts.CommentsPerMinute = 6
	}
	if opts.CommentBurst <= 0 {
		opts.CommentBurst = 3
	}

	renderer, err := views.New()
	if err != nil {
		return nil, err
	}

	svcOpts := []services.Option{
		services.WithLogger(opts.Logger),
		services.WithEventRecorder(opts.Metrics),
	}
	if opts.Clock != nil {
		svcOpts = append(svcOpts, services.WithClock(opts.Clock))
	}
	authOpts := append([]services.Option{}, svcOpts...)
	if opts.SessionLifetime > 0 {
		authOpts = append(authOpts, services.WithSessionLifetime(opts.SessionLifetime))
	}
	if opts.BcryptCost > 0 {
		authOpts = append(authOpts, services.WithBcryptCost(opts.BcryptCost))
	}

	app := &App{
		Posts:    services.NewPostService(store.Posts(), store.Comments(), svcOpts...),
		Comments: services.NewCommentService(store.Comments(), store.Posts(), svcOpts...),
		Auth:     services.NewAuthService(store.Users(), store.Sessions(), authOpts...),
		Metrics:  opts.Metrics,
	}
	app.Router = app.routes(renderer, opts)
	return app, nil
}

func (a *App) routes(renderer *views.Renderer, opts Options) *mux.Router {
	log := opts.Logger
	postController := controllers.NewPostController(a.Posts, a.Comments, renderer, log)
	commentController := controllers.NewCommentController(a.Comments, renderer, log)
	authController := controllers.NewAuthController(a.Auth, renderer, log, opts.CookieSecure)
	pageController := controllers.NewPageController(renderer, log)

	limiter := middleware.NewIPRateLimiter(rate.Limit(opts.CommentsPerMinute/60), opts.CommentBurst)
	limited := func(h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(limiter, a.Metrics.RateLimited)(h)
	}
	auth := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(pageController.NotFound)

	// Apply global middleware.
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.Session(a.Auth, log))

	router.Handle("/metrics", a.Metrics.Handler()).Methods("GET")
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", views.Static(opts.StaticDir)))

	// API routes.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.HandleFunc("/posts", postController.Index).Methods("GET")
	api.Handle("/posts", auth(postController.Create)).Methods("POST")
	api.HandleFunc("/posts/{id:[0-9]+}", postController.Show).Methods("GET")
	api.Handle("/posts/{id:[0-9]+}", auth(postController.Update)).Methods("PUT")
	api.Handle("/posts/{id:[0-9]+}", auth(postController.Delete)).Methods("DELETE")
	api.Handle("/posts/{id:[0-9]+}/publish", auth(postController.Publish)).Methods("POST")
	api.Handle("/drafts", auth(postController.Drafts)).Methods("GET")
	api.HandleFunc("/posts/{postId:[0-9]+}/comments", commentController.Index).Methods("GET")
	api.Handle("/posts/{postId:[0-9]+}/comments", limited(commentController.Create)).Methods("POST")
	api.Handle("/comments/{id:[0-9]+}/approve", auth(commentController.Approve)).Methods("POST")
	api.Handle("/comments/{id:[0-9]+}", auth(commentController.Remove)).Methods("DELETE")
	api.HandleFunc("/register", authController.Register).Methods("POST")
	api.HandleFunc("/login", authController.Login).Methods("POST")
	api.HandleFunc("/logout", authController.Logout).Methods("POST")

	// Web routes.
	router.HandleFunc("/", postController.Index).Methods("GET")
	router.HandleFunc("/about", pageController.About).Methods("GET")
	router.HandleFunc("/posts", postController.Index).Methods("GET")
	router.Handle("/posts", auth(postController.Create)).Methods("POST")
	router.Handle("/posts/new", auth(postController.New)).Methods("GET")
	router.HandleFunc("/posts/{id:[0-9]+}", postController.Show).Methods("GET")
	router.Handle("/posts/{id:[0-9]+}/edit", auth(postController.Edit)).Methods("GET")
	router.Handle("/posts/{id:[0-9]+}/edit", auth(postController.Update)).Methods("POST")
	router.Handle("/posts/{id:[0-9]+}/delete", auth(postController.Delete)).Methods("POST")
	router.Handle("/posts/{id:[0-9]+}/publish", auth(postController.Publish)).Methods("POST")
	router.Handle("/drafts", auth(postController.Drafts)).Methods("GET")
	router.HandleFunc("/posts/{postId:[0-9]+}/comments/new", commentController.New).Methods("GET")
	router.Handle("/posts/{postId:[0-9]+}/comments", limited(commentController.Create)).Methods("POST")
	router.Handle("/comments/{id:[0-9]+}/approve", auth(commentController.Approve)).Methods("POST")
	router.Handle("/comments/{id:[0-9]+}/remove", auth(commentController.Remove)).Methods("POST")
	router.HandleFunc("/register", authController.RegisterForm).Methods("GET")
	router.HandleFunc("/register", authController.Register).Methods("POST")
	router.HandleFunc("/user/login/", authController.LoginForm).Methods("GET")
	router.HandleFunc("/user/login/", authController.Login).Methods("POST")
	router.HandleFunc("/user/logout/", authController.Logout).Methods("POST")

	return router
}
