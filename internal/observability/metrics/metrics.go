package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	Cancelled                Outcome       = "cancelled"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var defaultHistogramBucketsSeconds = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30}

// Collectors are created eagerly so that recording works before Init and in
// tests. Init only registers them and exposes the endpoint.
var (
	once          sync.Once
	metricsRouter *chi.Mux

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Histogram of ledger operation durations in seconds, by operation and result code.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"operation", "code"},
	)

	spendVolumeCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_spend_volume_total",
			Help: "Total gross amount spent through authorizations, in base units",
		},
	)

	feesCollectedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_fees_collected_total",
			Help: "Total protocol fees collected from spends, in base units",
		},
	)

	rewardsDistributedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_rewards_distributed_total",
			Help: "Total fees allocated to staker pending rewards, in base units",
		},
	)

	rewardsClaimedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_rewards_claimed_total",
			Help: "Total rewards paid out to stakers, in base units",
		},
	)

	keeperDistributionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keeper_distributions_total",
			Help: "Number of per-staker distribution attempts made by the keeper, by result code",
		},
		[]string{"code"},
	)

	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of periodic job run durations in seconds, by job and outcome.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"job", "outcome"},
	)

	custodyLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "custody_latency_seconds",
			Help:    "Histogram of custody client durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Info().Msgf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

func registerMetrics() {
	prometheus.MustRegister(
		operationDuration,
		spendVolumeCounter,
		feesCollectedCounter,
		rewardsDistributedCounter,
		rewardsClaimedCounter,
		keeperDistributionsCounter,
		queueSendErrorCounter,
		pollerDurationHistogram,
		custodyLatency,
		dbLatency,
	)
}

// RecordOperation observes one ledger operation. code is empty on success.
func RecordOperation(d time.Duration, operation, code string) {
	if code == "" {
		code = Success.String()
	}
	operationDuration.WithLabelValues(operation, code).Observe(d.Seconds())
}

func RecordSpend(amount, fee uint64) {
	spendVolumeCounter.Add(float64(amount))
	feesCollectedCounter.Add(float64(fee))
}

func RecordRewardsDistributed(amount uint64) {
	rewardsDistributedCounter.Add(float64(amount))
}

func RecordRewardsClaimed(amount uint64) {
	rewardsClaimedCounter.Add(float64(amount))
}

func RecordKeeperDistribution(code string) {
	if code == "" {
		code = Success.String()
	}
	keeperDistributionsCounter.WithLabelValues(code).Inc()
}

func RecordCustodyLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	custodyLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
