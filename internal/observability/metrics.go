package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts session lifecycle events by outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_auth_events_total",
		Help: "Total number of authentication events by event and outcome",
	}, []string{"event", "outcome"})

	// TokenRotations counts refresh-token rotations by result.
	TokenRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_token_rotations_total",
		Help: "Total number of refresh token rotations by result",
	}, []string{"result"})

	// TokensIssued counts issued token pairs.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidtube_token_pairs_issued_total",
		Help: "Total number of access/refresh token pairs issued",
	})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// RecordAuthEvent increments AuthEvents with a success or failure outcome.
func RecordAuthEvent(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}
