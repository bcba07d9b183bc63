package pipeline

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labqc/spc-pipeline/pkg/config"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/test"
	"github.com/stretchr/testify/require"
)

func TestPipelineHealth(t *testing.T) {
	tests := []struct {
		running bool
		port    string
		status  int
	}{
		{running: true, port: "7000", status: http.StatusOK},
		{running: false, port: "7001", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("running=%t", tt.running), func(t *testing.T) {
			p := &Pipeline{}
			p.running.Store(tt.running)
			opts := config.Options{Health: config.Health{Address: "127.0.0.1", Port: tt.port}}
			server := operational.NewHealthServer(&opts, p.IsAlive(), p.IsReady())
			defer server.Close()
			require.Equal(t, "127.0.0.1:"+tt.port, server.Addr)

			for _, path := range []string{"/live", "/ready"} {
				url := fmt.Sprintf("http://%s%s", server.Addr, path)
				test.Eventually(t, 5*time.Second, func(t require.TestingT) {
					resp, err := http.Get(url)
					require.NoError(t, err)
					_ = resp.Body.Close()
					require.Equal(t, tt.status, resp.StatusCode)
				})
			}
		})
	}
}
