package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peeps_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts user cache lookups by outcome (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peeps_cache_lookups_total",
		Help: "User cache lookups by outcome",
	}, []string{"outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "peeps_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthRejections counts requests refused by the auth guard, by reason.
	AuthRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peeps_auth_rejections_total",
		Help: "Requests rejected by the auth guard",
	}, []string{"reason"})

	// LoginAttempts counts login attempts by result (success, failure).
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peeps_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	// TokensIssued counts access tokens handed out.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peeps_tokens_issued_total",
		Help: "Access tokens issued",
	})

	// FollowMutations counts follow graph writes by operation and result.
	FollowMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peeps_follow_mutations_total",
		Help: "Follow and unfollow operations by result",
	}, []string{"operation", "result"})

	// TimelineEntries records how many entries each timeline request returned.
	TimelineEntries = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "peeps_timeline_entries",
		Help:    "Entries returned per timeline request",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})
)

const metricsStartKey = "metrics:start"

// InstrumentDB registers GORM callbacks that feed DatabaseQueryLatency.
func InstrumentDB(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(metricsStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(metricsStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func() error
	}{
		{"create", func() error {
			if err := cb.Create().Before("gorm:create").Register("metrics:before_create", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("metrics:after_create", after("create"))
		}},
		{"query", func() error {
			if err := cb.Query().Before("gorm:query").Register("metrics:before_query", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("metrics:after_query", after("query"))
		}},
		{"update", func() error {
			if err := cb.Update().Before("gorm:update").Register("metrics:before_update", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("metrics:after_update", after("update"))
		}},
		{"delete", func() error {
			if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete"))
		}},
		{"raw", func() error {
			if err := cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("raw"))
		}},
	}
	for _, s := range steps {
		if err := s.register(); err != nil {
			return err
		}
	}
	return nil
}
