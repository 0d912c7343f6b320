package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "osudl"

// Download results used as the "result" label of DownloadsTotal
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the collectors of a single downloader run. Each run owns its
// own registry so repeated runs in one process never collide.
//
// All methods are safe on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	SearchPages         prometheus.Counter
	ScrapedBeatmapsets  prometheus.Gauge
	SkippedBeatmapsets  prometheus.Counter
	DownloadsTotal      *prometheus.CounterVec
	DownloadedBytes     prometheus.Counter
	ConsecutiveFailures prometheus.Gauge
	RequestLatency      *prometheus.HistogramVec
}

// New creates and registers the run collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SearchPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_pages_total",
			Help:      "Search result pages fetched.",
		}),
		ScrapedBeatmapsets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scraped_beatmapsets",
			Help:      "Unique beatmap sets collected by the scraper.",
		}),
		SkippedBeatmapsets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_beatmapsets_total",
			Help:      "Beatmap sets skipped because they already exist in the library.",
		}),
		DownloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Archive download attempts by result.",
		}, []string{"result"}),
		DownloadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Bytes of archive data written to the library.",
		}),
		ConsecutiveFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consecutive_download_failures",
			Help:      "Current run of consecutive failed downloads.",
		}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of requests to the osu! website.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
	}

	m.Registry.MustRegister(
		m.SearchPages,
		m.ScrapedBeatmapsets,
		m.SkippedBeatmapsets,
		m.DownloadsTotal,
		m.DownloadedBytes,
		m.ConsecutiveFailures,
		m.RequestLatency,
	)

	return m
}

func (m *Metrics) PageFetched(unique int) {
	if m == nil {
		return
	}
	m.SearchPages.Inc()
	m.ScrapedBeatmapsets.Set(float64(unique))
}

func (m *Metrics) Skipped(n int) {
	if m == nil {
		return
	}
	m.SkippedBeatmapsets.Add(float64(n))
}

// DownloadSucceeded records a completed archive of the given size
func (m *Metrics) DownloadSucceeded(bytes int64) {
	if m == nil {
		return
	}
	m.DownloadsTotal.WithLabelValues(ResultSuccess).Inc()
	if bytes > 0 {
		m.DownloadedBytes.Add(float64(bytes))
	}
}

// DownloadFailed records a failed attempt
func (m *Metrics) DownloadFailed() {
	if m == nil {
		return
	}
	m.DownloadsTotal.WithLabelValues(ResultFailure).Inc()
}

func (m *Metrics) SetConsecutiveFailures(n int) {
	if m == nil {
		return
	}
	m.ConsecutiveFailures.Set(float64(n))
}

func (m *Metrics) ObserveRequest(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(endpoint).Observe(seconds)
}

// WriteTextfile writes the registry in the Prometheus text format, suitable
// for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
