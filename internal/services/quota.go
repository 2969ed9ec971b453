package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/pkg/models"
)

// QuotaService enforces the per-user daily key-creation quota. Counters are
// bucketed by UTC calendar date; the date is computed once per operation so
// a request at midnight lands consistently in one day.
//
// Storage failures propagate as errors and never turn into an allow or deny
// decision (fail-closed at the handler boundary).
type QuotaService struct {
	db      DatabaseQuerier
	logger  *logrus.Logger
	metrics *Metrics
}

func NewQuotaService(db DatabaseQuerier, logger *logrus.Logger, metrics *Metrics) *QuotaService {
	return &QuotaService{
		db:      db,
		logger:  logger,
		metrics: metrics,
	}
}

func utcToday(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// getOrCreate loads the user's subscription, lazily creating it at the free
// tier, and applies the daily reset when the stored date is stale. The
// reset UPDATE is guarded by the stale date so concurrent callers collapse
// to a single reset.
func (s *QuotaService) getOrCreate(ctx context.Context, userID, today string) (*models.Subscription, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO subscriptions (id, user_id, tier, keys_created_today, last_reset_date)
		 VALUES ($1, $2, 'free', 0, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure subscription: %w", err)
	}

	var sub models.Subscription
	var tier string
	err = s.db.QueryRow(ctx,
		`SELECT id, user_id, tier, keys_created_today, last_reset_date
		 FROM subscriptions
		 WHERE user_id = $1`, userID).
		Scan(&sub.ID, &sub.UserID, &tier, &sub.KeysCreatedToday, &sub.LastResetDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	sub.Tier, err = models.ParseTier(tier)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"tier":    tier,
		}).Warn("Unknown stored tier, treating as free")
		sub.Tier = models.TierFree
	}

	if sub.LastResetDate != today {
		_, err = s.db.Exec(ctx,
			`UPDATE subscriptions
			 SET keys_created_today = 0, last_reset_date = $1, updated_at = CURRENT_TIMESTAMP
			 WHERE user_id = $2 AND last_reset_date = $3`,
			today, userID, sub.LastResetDate)
		if err != nil {
			return nil, fmt.Errorf("failed to reset daily counter: %w", err)
		}
		sub.KeysCreatedToday = 0
		sub.LastResetDate = today
	}

	return &sub, nil
}

// CanCreateKey answers whether the user may create another key today.
func (s *QuotaService) CanCreateKey(ctx context.Context, userID string) (*models.QuotaDecision, error) {
	sub, err := s.getOrCreate(ctx, userID, utcToday(time.Now()))
	if err != nil {
		return nil, err
	}

	limit := sub.Tier.Limits().KeysPerDay
	decision := &models.QuotaDecision{
		Allowed: sub.KeysCreatedToday < limit,
		Current: sub.KeysCreatedToday,
		Limit:   limit,
		Tier:    sub.Tier,
	}
	if !decision.Allowed {
		s.metrics.QuotaDenials.WithLabelValues(string(sub.Tier)).Inc()
	}
	return decision, nil
}

// IncrementUsage bumps today's counter. The arithmetic happens in a single
// UPDATE so two concurrent creations for the same user can never both
// observe the same prior count.
func (s *QuotaService) IncrementUsage(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE subscriptions
		 SET keys_created_today = keys_created_today + 1,
		     last_reset_date = $1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = $2`,
		utcToday(time.Now()), userID)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// SetTier upserts the user's tier. The daily counter is untouched.
func (s *QuotaService) SetTier(ctx context.Context, userID string, tier models.Tier) error {
	today := utcToday(time.Now())
	if _, err := s.getOrCreate(ctx, userID, today); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx,
		`UPDATE subscriptions SET tier = $1, updated_at = CURRENT_TIMESTAMP WHERE user_id = $2`,
		string(tier), userID)
	if err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"tier":    tier,
	}).Info("Subscription tier updated")
	return nil
}

// Info returns the subscription summary served by GET /subscription.
func (s *QuotaService) Info(ctx context.Context, userID string) (*models.SubscriptionInfo, error) {
	sub, err := s.getOrCreate(ctx, userID, utcToday(time.Now()))
	if err != nil {
		return nil, err
	}

	limit := sub.Tier.Limits().KeysPerDay
	remaining := limit - sub.KeysCreatedToday
	if remaining < 0 {
		remaining = 0
	}

	return &models.SubscriptionInfo{
		Tier:             sub.Tier,
		TierName:         sub.Tier.DisplayName(),
		KeysCreatedToday: sub.KeysCreatedToday,
		Limit:            limit,
		Remaining:        remaining,
	}, nil
}
