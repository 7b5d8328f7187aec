package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docsengine", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter store."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docsengine", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter store."},
		[]string{"limiter"},
	)
	DraftPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docsengine", Name: "draft_publishes_total", Help: "Number of draft publish attempts by outcome."},
		[]string{"outcome"},
	)
	AuditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docsengine", Name: "audit_write_failures_total", Help: "Number of audit records that could not be persisted."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DraftPublishes)
	reg.MustRegister(AuditWriteFailures)
}
