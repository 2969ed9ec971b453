package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/internal/config"
	"github.com/opencurio/keygate/internal/database"
)

// DatabaseQuerier is the slice of pgxpool.Pool the services use. pgxmock
// satisfies it, which keeps the storage-backed services testable without a
// live PostgreSQL.
type DatabaseQuerier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type Services struct {
	Keys      *KeyService
	Quota     *QuotaService
	RateLimit *RateLimitService
	UserAuth  *UserAuthService
	Health    *HealthService
	Metrics   *Metrics
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	metrics := NewMetrics(logger)
	codec := NewKeyCodec(cfg.Keys.Prefix, cfg.Keys.SecretBytes)

	keyService := NewKeyService(db.PG, codec, logger, metrics)
	quotaService := NewQuotaService(db.PG, logger, metrics)
	rateLimitService := NewRateLimitService(db.Redis, cfg.RateLimit.Window, logger, metrics)
	userAuthService := NewUserAuthService(cfg.Auth.JWTSecret)
	healthService := NewHealthService(logger, db)

	return &Services{
		Keys:      keyService,
		Quota:     quotaService,
		RateLimit: rateLimitService,
		UserAuth:  userAuthService,
		Health:    healthService,
		Metrics:   metrics,
	}, nil
}
