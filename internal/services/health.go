package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/internal/database"
)

type HealthService struct {
	logger *logrus.Logger
	db     *database.Database
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func NewHealthService(logger *logrus.Logger, db *database.Database) *HealthService {
	return &HealthService{
		logger: logger,
		db:     db,
	}
}

// Check pings both backing stores. Either one failing marks the whole
// service unhealthy, since quota and rate limiting both fail closed.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  map[string]string{},
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PG.Ping(ctx); err != nil {
		s.logger.WithError(err).Error("PostgreSQL health check failed")
		status.Services["postgresql"] = "unhealthy"
		status.Status = "unhealthy"
	} else {
		status.Services["postgresql"] = "healthy"
	}

	if err := s.db.Redis.Ping(ctx).Err(); err != nil {
		s.logger.WithError(err).Error("Redis health check failed")
		status.Services["redis"] = "unhealthy"
		status.Status = "unhealthy"
	} else {
		status.Services["redis"] = "healthy"
	}

	return status
}
