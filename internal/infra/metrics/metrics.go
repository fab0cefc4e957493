// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	verifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verify_attempts_total",
			Help: "Verification attempts by outcome (ok/activated/code_not_found/banned/expired/frozen/store_error).",
		},
		[]string{"outcome"},
	)

	codesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codes_generated_total",
			Help: "Access codes issued per plan type.",
		},
		[]string{"plan"},
	)

	generationRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "code_generation_retries_total",
			Help: "Uniqueness-collision retries inside the code generator.",
		},
	)

	recordsFrozen = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "records_auto_frozen_total",
			Help: "Records flipped to frozen by the expiry sweep.",
		},
	)
)

func init() {
	register(verifyTotal, codesGenerated, generationRetries, recordsFrozen)
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncVerify(outcome string) {
	verifyTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCodeGenerated(plan string) {
	codesGenerated.WithLabelValues(norm(plan)).Inc()
}

func IncGenerationRetry() {
	generationRetries.Inc()
}

func AddRecordsFrozen(n int) {
	recordsFrozen.Add(float64(n))
}
