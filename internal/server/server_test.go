package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyticshandlers "github.com/AlgoGators/algosystem/internal/modules/analytics/handlers"
	"github.com/AlgoGators/algosystem/internal/modules/metrics"
)

type fakeDB struct {
	err error
}

func (f fakeDB) QuickCheck(context.Context) error { return f.err }
func (f fakeDB) Path() string                     { return "/nonexistent/runs.db" }

func newTestServer(db DatabaseChecker) *Server {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	s := New(Config{
		Log:     logger,
		Port:    0,
		DevMode: true,
		DataDir: "/tmp/algosystem",
		RunsDB:  db,
		Analytics: analyticshandlers.NewHandler(analyticshandlers.Config{
			Metrics:       metrics.DefaultOptions(),
			VaRConfidence: 0.95,
		}, nil, logger),
	})
	s.systemHandlers.stats = func() (float64, float64) { return 12.5, 40 }
	return s
}

func TestHealth(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "algosystem", body["service"])
	assert.Equal(t, Version, body["version"])
}

func TestSystemStatus(t *testing.T) {
	tests := []struct {
		name       string
		db         DatabaseChecker
		wantStatus string
		wantDB     bool
	}{
		{"without database", nil, "healthy", false},
		{"healthy database", fakeDB{}, "healthy", true},
		{"failing database", fakeDB{err: errors.New("disk gone")}, "degraded", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.db)

			req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var resp SystemStatusResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, 12.5, resp.CPUPercent)
			assert.Equal(t, 40.0, resp.MemoryPercent)
			assert.Positive(t, resp.Goroutines)
			assert.Equal(t, "/tmp/algosystem", resp.DataDir)
			if tt.wantDB {
				require.NotNil(t, resp.Database)
				assert.Equal(t, "/nonexistent/runs.db", resp.Database.Path)
			} else {
				assert.Nil(t, resp.Database)
			}
		})
	}
}

func TestAnalyticsRoutesMounted(t *testing.T) {
	s := newTestServer(nil)

	body := `{"returns":[-0.05,-0.02,0.01,0.03,0.04]}`
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/risk/var", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"method":"historical"`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analytics/metrics", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
