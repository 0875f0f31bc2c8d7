package auth

import (
	"context"
	"log/slog"
	"time"
)

type loggingService struct {
	logger *slog.Logger
	next   Service
}

// NewLoggingService logs every call to next with its latency and outcome.
// Passwords are never logged.
func NewLoggingService(logger *slog.Logger, next Service) Service {
	return &loggingService{logger: logger, next: next}
}

func (s *loggingService) RegisterAccount(ctx context.Context, r registerAccountRequest) (id ID, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "RegisterAccount", begin, err, slog.String("email", r.Email), slog.String("id", string(id)))
	}(time.Now())
	return s.next.RegisterAccount(ctx, r)
}

func (s *loggingService) ValidateCredentials(ctx context.Context, r validateCredentialsRequest) (info AccountInfo, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "ValidateCredentials", begin, err, slog.String("email", r.Email))
	}(time.Now())
	return s.next.ValidateCredentials(ctx, r)
}

func (s *loggingService) ListAccounts(ctx context.Context, limit int) (infos []AccountInfo, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "ListAccounts", begin, err, slog.Int("limit", limit), slog.Int("count", len(infos)))
	}(time.Now())
	return s.next.ListAccounts(ctx, limit)
}

func (s *loggingService) GetAccount(ctx context.Context, id ID) (info AccountInfo, err error) {
	defer func(begin time.Time) {
		s.log(ctx, "GetAccount", begin, err, slog.String("id", string(id)))
	}(time.Now())
	return s.next.GetAccount(ctx, id)
}

// Client errors log at warn, everything else that failed at error.
func (s *loggingService) log(ctx context.Context, method string, begin time.Time, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.String("method", method),
		slog.Duration("took", time.Since(begin)),
	)

	level := slog.LevelInfo
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelError
		if statusFor(err) < 500 {
			level = slog.LevelWarn
		}
	}

	s.logger.LogAttrs(ctx, level, "auth service call", attrs...)
}
