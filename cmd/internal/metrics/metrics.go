// Package metrics exports Prometheus collectors for sessions, upstream
// executions and sync runs.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"homeworksync/cmd/internal/homework"
	"homeworksync/cmd/internal/portal/executor"
	"homeworksync/cmd/internal/portal/session"
)

const namespace = "homeworksync"

// Recorder implements session.Observer and homework.SyncObserver.
// Executions returns the executor.Observer view.
type Recorder struct {
	reg *prometheus.Registry

	sessionAttempts      *prometheus.CounterVec
	sessionAcquireTime   *prometheus.HistogramVec
	sessionInvalidations *prometheus.CounterVec

	execAttempts *prometheus.CounterVec
	execResults  *prometheus.CounterVec
	execDuration *prometheus.HistogramVec

	syncRuns        *prometheus.CounterVec
	syncNewItems    prometheus.Counter
	syncTotalItems  prometheus.Gauge
	syncLastSuccess prometheus.Gauge
}

var (
	_ session.Observer      = (*Recorder)(nil)
	_ homework.SyncObserver = (*Recorder)(nil)
	_ executor.Observer     = executionRecorder{}
)

// NewRecorder registers every collector on a fresh registry, together with
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,

		sessionAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "acquire_attempts_total",
			Help:      "Session acquisition attempts by strategy and result.",
		}, []string{"strategy", "result"}),
		sessionAcquireTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "acquire_duration_seconds",
			Help:      "Time spent in one acquisition strategy.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"strategy"}),
		sessionInvalidations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "invalidations_total",
			Help:      "Cached sessions dropped after an authorization failure.",
		}, []string{"origin"}),

		execAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "attempts_total",
			Help:      "Upstream HTTP attempts by request and verdict.",
		}, []string{"request", "verdict"}),
		execResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "executions_total",
			Help:      "Completed executions by request and outcome.",
		}, []string{"request", "outcome"}),
		execDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "execution_duration_seconds",
			Help:      "Wall time of an execution including retries and session renewal.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"request"}),

		syncRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Sync runs by result.",
		}, []string{"result"}),
		syncNewItems: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "new_items_total",
			Help:      "Homework records added by sync runs.",
		}),
		syncTotalItems: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "records",
			Help:      "Records stored after the last successful run.",
		}),
		syncLastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// FeedStats is the part of the feed hub the recorder samples.
type FeedStats interface {
	Len() int
	Dropped() uint64
}

// ObserveFeed exports subscriber count and dropped deliveries of hub.
func (r *Recorder) ObserveFeed(hub FeedStats) {
	f := promauto.With(r.reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "subscribers",
		Help:      "Connected live feed subscribers.",
	}, func() float64 { return float64(hub.Len()) })
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "dropped_total",
		Help:      "Envelopes skipped because a subscriber queue was full.",
	}, func() float64 { return float64(hub.Dropped()) })
}

func (r *Recorder) AttemptFinished(res session.AttemptResult) {
	strategy := string(res.Strategy)
	r.sessionAttempts.WithLabelValues(strategy, attemptResult(res)).Inc()
	r.sessionAcquireTime.WithLabelValues(strategy).Observe(res.Duration.Seconds())
}

func (r *Recorder) Invalidated(prev session.Session) {
	r.sessionInvalidations.WithLabelValues(string(prev.Origin)).Inc()
}

func (r *Recorder) SyncFinished(res homework.Result, err error) {
	if err != nil {
		r.syncRuns.WithLabelValues("error").Inc()
		return
	}
	r.syncRuns.WithLabelValues("ok").Inc()
	r.syncNewItems.Add(float64(res.NewItems))
	r.syncTotalItems.Set(float64(res.TotalItems))
	r.syncLastSuccess.Set(float64(res.StartedAt.Add(res.Duration).Unix()))
}

// Executions returns an executor.Observer backed by r.
func (r *Recorder) Executions() executor.Observer { return executionRecorder{r} }

type executionRecorder struct{ r *Recorder }

func (e executionRecorder) AttemptFinished(info executor.AttemptInfo) {
	verdict := info.Verdict.String()
	if info.Err != nil && info.Status == 0 {
		verdict = "network_error"
	}
	e.r.execAttempts.WithLabelValues(info.Request, verdict).Inc()
}

func (e executionRecorder) ExecutionFinished(request string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if k := executor.KindOf(err); k != 0 {
			outcome = k.String()
		}
	}
	e.r.execResults.WithLabelValues(request, outcome).Inc()
	e.r.execDuration.WithLabelValues(request).Observe(elapsed.Seconds())
}

func attemptResult(res session.AttemptResult) string {
	switch {
	case res.Success():
		return "ok"
	case errors.Is(res.Err, session.ErrNoCredentialsConfigured):
		return "skipped"
	case errors.Is(res.Err, session.ErrValidationFailed):
		return "invalid"
	default:
		return "error"
	}
}
