package main

import (
	"context"
	"log/slog"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jimiolaniyan/accounts/auth"
	"github.com/jimiolaniyan/accounts/config"
	"github.com/jimiolaniyan/accounts/logs"
	"github.com/jimiolaniyan/accounts/store"
)

func main() {
	fx.New(
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		fx.Provide(
			config.New,
			logs.New,
			newStore,
			newHasher,
			newService,
			newServer,
		),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}

// newStore connects before the app starts so a bad URI or an unreachable
// server stops startup.
func newStore(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*store.Mongo, error) {
	docs, err := store.Connect(context.Background(), store.MongoOptions{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		Collection:     cfg.Mongo.Collection,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("connected to mongo",
				slog.String("database", cfg.Mongo.Database),
				slog.String("collection", cfg.Mongo.Collection),
			)
			return docs.EnsureUnique(ctx, auth.LoginField)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("disconnecting from mongo")
			return docs.Close(ctx)
		},
	})

	return docs, nil
}

func newHasher(cfg *config.Config) (auth.Hasher, error) {
	return auth.NewBcryptHasher(cfg.Auth.BcryptCost)
}

func newService(docs *store.Mongo, hasher auth.Hasher, logger *slog.Logger) auth.Service {
	svc := auth.NewService(docs, hasher, auth.NewLogEvents(logger))
	return auth.NewLoggingService(logger, svc)
}
