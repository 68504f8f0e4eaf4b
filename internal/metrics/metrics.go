package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_started_total",
		Help: "Quiz sessions opened",
	})

	SessionsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_submitted_total",
		Help: "Quiz sessions submitted and scored",
	})

	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quiz_sessions_active",
		Help: "Quiz sessions currently held in memory",
	})

	RejectedTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_session_rejected_transitions_total",
			Help: "Session transitions refused by the engine",
		},
		[]string{"reason"},
	)

	ScoreRatio = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quiz_session_score_ratio",
		Help:    "Score divided by question count at submission",
		Buckets: []float64{0, 0.25, 0.5, 0.75, 0.9, 1},
	})

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SessionsStarted,
			SessionsSubmitted,
			SessionsActive,
			RejectedTransitions,
			ScoreRatio,
			RequestCounter,
			RequestDuration,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and durations. Requests are labelled by
// the mux pattern so path parameters do not explode cardinality.
func Middleware(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		if pattern == "/ws" || pattern == "GET /ws" {
			// hijacked connections cannot be wrapped
			mux.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)

		RequestCounter.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
