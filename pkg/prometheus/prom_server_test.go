package prometheus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/config"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, port int, header http.Header) (int, string) {
	var status int
	var body string
	test.Eventually(t, 10*time.Second, func(t require.TestingT) {
		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://127.0.0.1:%d/metrics", port), nil)
		require.NoError(t, err)
		for k, v := range header {
			req.Header[k] = v
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		status, body = resp.StatusCode, string(b)
	})
	return status, body
}

func TestPromServer(t *testing.T) {
	def := operational.DefineMetric("test_scraped_total", "scraped from the global server", operational.TypeCounter)
	operational.NewMetrics(nil).NewCounter(&def).Inc()

	srv := InitializePrometheus(&config.MetricsSettings{NoPanic: true})
	defer func() { _ = srv.Shutdown(context.Background()) }()
	require.Equal(t, fmt.Sprintf(":%d", config.DefaultMetricsPort), srv.Addr)

	status, body := scrape(t, config.DefaultMetricsPort, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "go_gc_duration_seconds")
	assert.Contains(t, body, "spc_test_scraped_total 1")
	assert.Contains(t, test.ReadExposedMetrics(t), "spc_test_scraped_total 1")

	// headers beyond the default 1MB limit are rejected
	large := http.Header{}
	for i := 0; i < 1025; i++ {
		large.Set(fmt.Sprintf("X-Filler-%d", i), strings.Repeat("x", 1024))
	}
	status, _ = scrape(t, config.DefaultMetricsPort, large)
	assert.Equal(t, http.StatusRequestHeaderFieldsTooLarge, status)
}

func TestPromServerSettings(t *testing.T) {
	srv := InitializePrometheus(&config.MetricsSettings{
		PromConnectionInfo: api.PromConnectionInfo{Address: "127.0.0.1", Port: 9190},
		NoPanic:            true,
		SuppressGoMetrics:  true,
	})
	defer func() { _ = srv.Shutdown(context.Background()) }()
	require.Equal(t, "127.0.0.1:9190", srv.Addr)

	status, body := scrape(t, 9190, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "go_gc_duration_seconds")
}
