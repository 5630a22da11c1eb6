package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ipl"

var (
	feesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fees_created_total",
		Help:      "Fees created, by operation.",
	}, []string{"operation"})

	feesSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fees_superseded_total",
		Help:      "Unpaid fees superseded by a regeneration.",
	})

	feesRestored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fees_restored_total",
		Help:      "Superseded fees restored by a rollback.",
	})

	feesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fees_deleted_total",
		Help:      "Regenerated fees removed by a rollback.",
	})

	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fee_operations_total",
		Help:      "Generate / regenerate / rollback calls, by result.",
	}, []string{"operation", "result"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fee_operation_duration_seconds",
		Help:      "Duration of fee operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// 操作名
const (
	OpGenerate   = "generate"
	OpRegenerate = "regenerate"
	OpRollback   = "rollback"
)

// 结果
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultBlocked = "blocked"
	ResultNoop    = "noop"
)

func FeesCreated(operation string, n int) {
	feesCreated.WithLabelValues(operation).Add(float64(n))
}

func FeesSuperseded(n int) {
	feesSuperseded.Add(float64(n))
}

func FeesRestored(n int) {
	feesRestored.Add(float64(n))
}

func FeesDeleted(n int) {
	feesDeleted.Add(float64(n))
}

// ObserveOperation 记录一次操作的结果和耗时
func ObserveOperation(operation, result string, start time.Time) {
	operations.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
