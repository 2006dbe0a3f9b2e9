package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mohttp "github.com/fyrsmithlabs/middleout/internal/http"
)

// newMetricsServer serves the same collectors the HTTP API exports.
func newMetricsServer(t *testing.T) (*httptest.Server, *mohttp.PromMetrics) {
	t.Helper()

	pm := mohttp.NewPromMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(pm.Registry, promhttp.HandlerOpts{}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, pm
}

func TestNewMetricsClient(t *testing.T) {
	client := NewMetricsClient("http://localhost:9191/")
	assert.Equal(t, "http://localhost:9191", client.baseURL)
	assert.Equal(t, 2*time.Second, client.client.Timeout)
}

func TestMetricsClient_Scrape(t *testing.T) {
	srv, pm := newMetricsServer(t)

	pm.RequestsTotal.WithLabelValues("POST", "/api/v1/compress", "200").Add(3)
	pm.RequestsTotal.WithLabelValues("POST", "/api/v1/compare", "500").Inc()
	for i := 0; i < 4; i++ {
		pm.RequestDuration.WithLabelValues("POST", "/api/v1/compress").Observe(0.002)
	}
	pm.Operations.WithLabelValues("compress", "rle").Add(2)
	pm.Operations.WithLabelValues("decompress", "rle").Add(3)
	pm.Operations.WithLabelValues("compress", "zph").Inc()
	pm.Fallbacks.WithLabelValues("format").Inc()
	pm.RateLimited.Add(2)

	snap, err := NewMetricsClient(srv.URL).Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4.0, snap.Requests)
	assert.Equal(t, 1.0, snap.ServerErrors)
	assert.Equal(t, 2.0, snap.RateLimited)
	assert.Equal(t, 3.0, snap.Decompressions)
	assert.Equal(t, map[string]float64{"rle": 5, "zph": 1}, snap.Operations)
	assert.Equal(t, map[string]float64{"format": 1}, snap.Fallbacks)
	assert.Equal(t, uint64(4), snap.Latency.Count)
	assert.NotEmpty(t, snap.Latency.Bounds)
	assert.Greater(t, snap.Goroutines, 0.0)
}

func TestMetricsClient_Scrape_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewMetricsClient(srv.URL).Scrape(context.Background())
	assert.ErrorContains(t, err, "unexpected status code 503")
}

func TestMetricsClient_Scrape_WrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("# nothing\n"))
	}))
	defer srv.Close()

	_, err := NewMetricsClient(srv.URL).Scrape(context.Background())
	assert.ErrorContains(t, err, "unexpected content type")
}

func TestMetricsClient_Scrape_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", protoAccept)
		_, _ = w.Write([]byte{0x05, 0xff, 0xff})
	}))
	defer srv.Close()

	_, err := NewMetricsClient(srv.URL).Scrape(context.Background())
	assert.ErrorContains(t, err, "failed to decode metric family")
}

func TestMetricsClient_Scrape_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewMetricsClient(srv.URL).Scrape(ctx)
	assert.ErrorContains(t, err, "request failed")
}
