package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Claim outcomes recorded on journey_claims_total.
const (
	claimWon      = "won"
	claimLost     = "lost"
	claimRejected = "rejected"
	claimError    = "error"
)

var journeyClaims = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "journey_claims_total",
		Help: "Journey claim attempts by outcome",
	},
	[]string{"outcome"},
)

func observeClaim(outcome string) {
	journeyClaims.WithLabelValues(outcome).Inc()
}
