package services

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	accessDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_decisions_total",
			Help: "Total number of access checks by outcome",
		},
		[]string{"check", "outcome"},
	)

	rateLimitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_total",
			Help: "Total number of rate limit checks by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	cascadeRepairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "block_cascade_repairs_total",
			Help: "Total number of friend/watch edges removed by block reconciliation",
		},
	)
)

func recordDecision(check string, err error) {
	outcome := "allow"
	if err != nil {
		outcome = strings.ToLower(string(CodeOf(err)))
	}
	accessDecisionsTotal.WithLabelValues(check, outcome).Inc()
}

func recordRateLimit(action, outcome string) {
	rateLimitTotal.WithLabelValues(action, outcome).Inc()
}
