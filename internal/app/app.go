package app

import (
	"context"
	"errors"
	"net/http"

	"handyman-auth/internal/auth/controller"
	"handyman-auth/internal/config"
)

type App struct {
	httpServer     *http.Server
	controller     *controller.Controller
	infra          *Infra
	stopNavigation func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	w, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: w.router,
	}

	return &App{
		httpServer:     server,
		controller:     w.controller,
		infra:          w.infra,
		stopNavigation: w.stopNavigation,
	}, nil
}

// Handler returns the HTTP handler served by Run.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

func (a *App) Run() error {
	err := a.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown abandons any in-flight sign-in and ends open state streams and
// the navigation follower. It then stops the HTTP server and closes the
// database and Redis connections.
func (a *App) Shutdown(ctx context.Context) error {
	a.controller.Close()
	a.stopNavigation()
	serverErr := a.httpServer.Shutdown(ctx)
	return errors.Join(serverErr, a.infra.Close())
}
