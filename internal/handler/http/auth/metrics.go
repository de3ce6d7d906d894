package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// authRequestsTotal counts checks on protected endpoints by result:
// success | missing | invalid | forbidden
var authRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_requests_total",
		Help: "Authorization checks on protected endpoints by result",
	},
	[]string{"result"},
)

func recordAuth(result string) {
	authRequestsTotal.WithLabelValues(result).Inc()
}
