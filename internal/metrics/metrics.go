// Package metrics собирает метрики Prometheus по отправкам формы.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Статусы отправки
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusRejected = "rejected"
)

// Recorder записывает метрики в собственный реестр
type Recorder struct {
	registry           *prometheus.Registry
	submissionsTotal   *prometheus.CounterVec
	submissionDuration prometheus.Histogram
	urlsAddedTotal     prometheus.Counter
	urlsPerSubmission  prometheus.Histogram
}

// NewRecorder создает реестр и регистрирует в нем метрики сервиса
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		submissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "supportgen_submissions_total",
				Help: "Total number of agent creation submissions by status",
			},
			[]string{"status"},
		),
		submissionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "supportgen_submission_duration_seconds",
				Help:    "Duration of agent creation requests in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		urlsAddedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "supportgen_urls_added_total",
				Help: "Total number of URLs added to forms",
			},
		),
		urlsPerSubmission: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "supportgen_urls_per_submission",
				Help:    "Number of URLs sent with each submission",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
	}

	r.registry.MustRegister(
		r.submissionsTotal,
		r.submissionDuration,
		r.urlsAddedTotal,
		r.urlsPerSubmission,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveSubmission записывает результат завершенной отправки
func (r *Recorder) ObserveSubmission(success bool, urls int, duration time.Duration) {
	status := StatusSuccess
	if !success {
		status = StatusFailure
	}
	r.submissionsTotal.WithLabelValues(status).Inc()
	r.submissionDuration.Observe(duration.Seconds())
	r.urlsPerSubmission.Observe(float64(urls))
}

// IncRejected учитывает отправку, отклоненную из-за уже выполняющегося запроса
func (r *Recorder) IncRejected() {
	r.submissionsTotal.WithLabelValues(StatusRejected).Inc()
}

// IncURLsAdded учитывает добавленный URL
func (r *Recorder) IncURLsAdded() {
	r.urlsAddedTotal.Inc()
}

// Handler возвращает HTTP обработчик для экспорта метрик
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry возвращает реестр метрик
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
