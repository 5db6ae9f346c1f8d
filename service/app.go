package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"personalblog/app/metrics"
	"personalblog/app/routes"

	"github.com/spf13/cobra"
)

// purgeInterval is how often expired sessions are dropped while serving.
const purgeInterval = time.Hour

func runServe(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		env.cfg.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", env.cfg.Addr)
	if err != nil {
		return err
	}
	return env.serve(ctx, listener)
}

// serve runs the blog on listener until ctx is cancelled, then shuts the
// server down gracefully.
func (e *environment) serve(ctx context.Context, listener net.Listener) error {
	store, err := e.openStore()
	if err != nil {
		listener.Close()
		return err
	}
	defer store.Close()

	app, err := routes.New(store, routes.Options{
		Logger:            e.log,
		Metrics:           metrics.New(),
		SessionLifetime:   e.cfg.SessionLifetime,
		CookieSecure:      e.cfg.CookieSecure,
		CommentsPerMinute: e.cfg.RateLimit.CommentsPerMinute,
		CommentBurst:      e.cfg.RateLimit.Burst,
		StaticDir:         e.cfg.StaticDir,
	})
	if err != nil {
		listener.Close()
		return err
	}

	srv := &http.Server{
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go e.purgeSessions(ctx, app)

	errs := make(chan error, 1)
	go func() {
		e.log.Info("server listening", "addr", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	e.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	e.log.Info("server stopped")
	return nil
}

func (e *environment) purgeSessions(ctx context.Context, app *routes.App) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.Auth.PurgeExpired()
			if err != nil {
				e.log.Error("failed to purge sessions", "error", err)
				continue
			}
			if n > 0 {
				e.log.Info("purged expired sessions", "count", n)
			}
		}
	}
}
