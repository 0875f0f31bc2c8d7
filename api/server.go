package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/fx"

	"github.com/jimiolaniyan/accounts/auth"
	"github.com/jimiolaniyan/accounts/config"
)

const timeoutBody = `{"error":"request timed out"}`

func newServer(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, svc auth.Service) *http.Server {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.HTTP.Port)),
		Handler:           newHandler(cfg.HTTP, svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return errors.Wrapf(err, "listen on %s", srv.Addr)
			}
			logger.Info("Server started", slog.String("addr", srv.Addr))

			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("http server stopped", slog.Any("error", err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
			defer cancel()

			logger.Info("Shutting down HTTP server")
			return errors.WithStack(srv.Shutdown(ctx))
		},
	})

	return srv
}

// newHandler bounds every request by RequestTimeout; the deadline reaches
// the store through the request context.
func newHandler(cfg config.HTTP, svc auth.Service) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	return c.Handler(http.TimeoutHandler(auth.NewRouter(svc), cfg.RequestTimeout, timeoutBody))
}
