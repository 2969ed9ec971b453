package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Metrics holds the domain counters exported on /metrics.
type Metrics struct {
	KeysIssued       prometheus.Counter
	KeyVerifications *prometheus.CounterVec
	RateLimitDenials *prometheus.CounterVec
	QuotaDenials     *prometheus.CounterVec
}

func NewMetrics(logger *logrus.Logger) *Metrics {
	m := &Metrics{
		KeysIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygate_keys_issued_total",
			Help: "Total number of API keys issued",
		}),
		KeyVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keygate_key_verifications_total",
			Help: "Key verification outcomes",
		}, []string{"result"}),
		RateLimitDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keygate_rate_limit_denials_total",
			Help: "Requests denied by the sliding window rate limiter",
		}, []string{"tier"}),
		QuotaDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keygate_quota_denials_total",
			Help: "Key creations denied by the daily quota",
		}, []string{"tier"}),
	}

	for _, c := range []prometheus.Collector{
		m.KeysIssued, m.KeyVerifications, m.RateLimitDenials, m.QuotaDenials,
	} {
		if err := prometheus.Register(c); err != nil {
			// Ignore double registration so tests can build several Metrics
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				logger.WithError(err).Warn("Failed to register metric")
			}
		}
	}

	return m
}
