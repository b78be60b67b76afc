package service

import "github.com/prometheus/client_golang/prometheus"

var authAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "supplysphere_auth_attempts_total", Help: "auth operations by outcome"},
	[]string{"op", "result"},
)

var verifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "supplysphere_verifications_total", Help: "product verifications by status"},
	[]string{"status"},
)

func init() { prometheus.MustRegister(authAttempts, verifications) }
