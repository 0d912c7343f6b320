package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndGauges(t *testing.T) {
	m := New()

	m.PageFetched(50)
	m.PageFetched(98)
	m.Skipped(3)
	m.DownloadSucceeded(1024)
	m.DownloadSucceeded(0)
	m.DownloadFailed()
	m.SetConsecutiveFailures(1)

	expectedDownloads := `# HELP osudl_downloads_total Archive download attempts by result.
# TYPE osudl_downloads_total counter
osudl_downloads_total{result="failure"} 1
osudl_downloads_total{result="success"} 2
`
	if err := testutil.CollectAndCompare(m.DownloadsTotal, strings.NewReader(expectedDownloads)); err != nil {
		t.Fatalf("unexpected downloads metric: %v", err)
	}

	expectedScraped := `# HELP osudl_scraped_beatmapsets Unique beatmap sets collected by the scraper.
# TYPE osudl_scraped_beatmapsets gauge
osudl_scraped_beatmapsets 98
`
	if err := testutil.CollectAndCompare(m.ScrapedBeatmapsets, strings.NewReader(expectedScraped)); err != nil {
		t.Fatalf("unexpected scraped gauge: %v", err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchPages))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SkippedBeatmapsets))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.DownloadedBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsecutiveFailures))
}

func TestRequestLatency(t *testing.T) {
	m := New()
	m.ObserveRequest("search", 0.2)
	m.ObserveRequest("search", 3)
	m.ObserveRequest("download", 12)

	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestLatency))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.PageFetched(1)
		m.Skipped(1)
		m.DownloadSucceeded(10)
		m.DownloadFailed()
		m.SetConsecutiveFailures(2)
		m.ObserveRequest("home", 0.1)
	})
	assert.NoError(t, m.WriteTextfile("/nonexistent/osudl.prom"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.DownloadSucceeded(2048)

	path := filepath.Join(t.TempDir(), "collector", "osudl.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `osudl_downloads_total{result="success"} 1`)
	assert.Contains(t, string(data), "osudl_downloaded_bytes_total 2048")

	assert.NoError(t, m.WriteTextfile(""))
}
