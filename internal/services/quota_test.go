package services

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencurio/keygate/pkg/models"
)

func newTestQuotaService(t *testing.T) (*QuotaService, pgxmock.PgxPoolIface) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return NewQuotaService(mockDB, logger, NewMetrics(logger)), mockDB
}

func expectEnsureSubscription(mockDB pgxmock.PgxPoolIface, inserted bool) {
	rows := int64(0)
	if inserted {
		rows = 1
	}
	mockDB.ExpectExec("INSERT INTO subscriptions").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", rows))
}

func subscriptionRows(tier string, count int, resetDate string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "user_id", "tier", "keys_created_today", "last_reset_date"}).
		AddRow("sub-1", "user-1", tier, count, resetDate)
}

func TestQuotaCanCreateKeyUnderLimit(t *testing.T) {
	svc, mockDB := newTestQuotaService(t)
	today := utcToday(time.Now())

	expectEnsureSubscription(mockDB, false)
	mockDB.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("free", 3, today))

	decision, err := svc.CanCreateKey(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 3, decision.Current)
	assert.Equal(t, 10, decision.Limit)
	assert.Equal(t, models.TierFree, decision.Tier)
}

func TestQuotaCanCreateKeyAtLimit(t *testing.T) {
	svc, mockDB := newTestQuotaService(t)
	today := utcToday(time.Now())

	expectEnsureSubscription(mockDB, false)
	mockDB.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("free", 10, today))

	decision, err := svc.CanCreateKey(context.Background(), "user-1")
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.Equal(t, 10, decision.Current)
	assert.Equal(t, 10, decision.Limit)
}

func TestQuotaDailyReset(t *testing.T) {
	svc, mockDB := newTestQuotaService(t)
	today := utcToday(time.Now())
	yesterday := utcToday(time.Now().AddDate(0, 0, -1))

	expectEnsureSubscription(mockDB, false)
	mockDB.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("free", 10, yesterday))
	mockDB.ExpectExec("UPDATE subscriptions SET keys_created_today = 0").
		WithArgs(today, "user-1", yesterday).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	// A full counter from yesterday resets before the limit check
	decision, err := svc.CanCreateKey(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.Current)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestQuotaLazyCreation(t *testing.T) {
	svc, mockDB := newTestQuotaService(t)
	today := utcToday(time.Now())

	expectEnsureSubscription(mockDB, true)
	mockDB.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs("new-user").
		WillReturnRows(subscriptionRows("free", 0, today))

	decision, err := svc.CanCreateKey(context.Background(), "new-user")
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.Current)
	assert.Equal(t, models.TierFree, decision.Tier)
}

func TestQuotaTierLimits(t *testing.T) {
	cases := []struct {
		tier  string
		limit int
	}{
		{"free", 10},
		{"pro", 50},
		{"premium", 200},
		{"premium_plus", 1000},
	}

	for _, tc := range cases {
		t.Run(tc.tier, func(t *testing.T) {
			svc, mockDB := newTestQuotaService(t)
			today := utcToday(time.Now())

			expectEnsureSubscription(mockDB, false)
			mockDB.ExpectQuery("SELECT (.+) FROM subscriptions").
				WithArgs("user-1").
				WillReturnRows(subscriptionRows(tc.tier, 0, today))

			decision, err := svc.CanCreateKey(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Equal(t, tc.limit, decision.Limit)
		})
	}
}

func TestQuotaIncrementUsage(t *testing.T) {
	svc, mockDB := newTestQuotaService(t)
	today := utcToday(time.Now())

	mockDB.ExpectExec("UPDATE subscriptions SET keys_created_today = keys_created_today \\+ 1").
		WithArgs(today, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, svc.IncrementUsage(context.Background(), "user-1"))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestQuotaSetTier(t *testing.T) {
	svc, mockDB := newTestQuotaService(t)
	today := utcToday(time.Now())

	expectEnsureSubscription(mockDB, false)
	mockDB.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("free", 4, today))
	mockDB.ExpectExec("UPDATE subscriptions SET tier").
		WithArgs("premium", "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, svc.SetTier(context.Background(), "user-1", models.TierPremium))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestQuotaInfo(t *testing.T) {
	svc, mockDB := newTestQuotaService(t)
	today := utcToday(time.Now())

	expectEnsureSubscription(mockDB, false)
	mockDB.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("pro", 12, today))

	info, err := svc.Info(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.TierPro, info.Tier)
	assert.Equal(t, "Pro", info.TierName)
	assert.Equal(t, 12, info.KeysCreatedToday)
	assert.Equal(t, 50, info.Limit)
	assert.Equal(t, 38, info.Remaining)
}

func TestQuotaUnknownStoredTierFallsBackToFree(t *testing.T) {
	svc, mockDB := newTestQuotaService(t)
	today := utcToday(time.Now())

	expectEnsureSubscription(mockDB, false)
	mockDB.ExpectQuery("SELECT (.+) FROM subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("platinum", 0, today))

	decision, err := svc.CanCreateKey(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, decision.Tier)
	assert.Equal(t, 10, decision.Limit)
}
