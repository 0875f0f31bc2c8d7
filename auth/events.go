package auth

import (
	"log/slog"
)

type logEvents struct {
	logger *slog.Logger
}

// NewLogEvents returns Events that record account lifecycle changes in
// the log.
func NewLogEvents(logger *slog.Logger) Events {
	return &logEvents{logger: logger}
}

func (e *logEvents) AccountCreated(id string, username string, email string) {
	e.logger.Info("account created",
		slog.String("id", id),
		slog.String("username", username),
		slog.String("email", email),
	)
}
