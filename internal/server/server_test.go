package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/di"
	"github.com/aristath/advisor/internal/evaluation/workers"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/prediction"
	"github.com/aristath/advisor/internal/modules/technical"
	"github.com/aristath/advisor/internal/scheduler"
	testingpkg "github.com/aristath/advisor/internal/testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.Nop()

	cfg := config.Defaults()
	cfg.DevMode = true
	cfg.DefaultNumPortfolios = 50

	cacheDB, cleanup := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cleanup)

	provider := testingpkg.NewMockTimeSeriesProvider()
	provider.DisableWindowFilter()
	provider.SetBars("AAA", testingpkg.BarsFromCloses(testingpkg.FixtureStart, testingpkg.TrendCloses(60, 100, 0.5)))
	provider.SetBars("BBB", testingpkg.BarsFromCloses(testingpkg.FixtureStart, testingpkg.NoisyCloses(60, 50, 7)))

	fetcher := portfolio.NewHistoryFetcher(provider, time.Second, log)
	calculator := portfolio.NewMetricsCalculator(cfg.RiskFreeRate, log)
	engine := technical.NewEngine()
	repo := clientdata.NewRepository(cacheDB.Conn())

	container := &di.Container{
		CacheDB:           cacheDB,
		CacheRepo:         repo,
		Provider:          provider,
		HistoryFetcher:    fetcher,
		MetricsCalculator: calculator,
		PortfolioService:  portfolio.NewPortfolioService(fetcher, calculator, cfg.DefaultInitialInvestment, log),
		WorkerPool:        workers.NewWorkerPool(2),
		TechnicalEngine:   engine,
		TechnicalService:  technical.NewService(provider, engine, time.Second, log),
		Predictor:         prediction.NewPredictor(fetcher, engine, log),
		Scheduler:         scheduler.New(log),
	}
	container.FrontierGenerator = optimization.NewFrontierGenerator(fetcher, calculator, container.WorkerPool, 11, log)

	cleanupJob := clientdata.NewCleanupJob(repo, cacheDB, log)
	require.NoError(t, container.Scheduler.AddJob(cfg.CacheCleanupSchedule, cleanupJob))

	return New(Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      &di.JobInstances{CacheCleanup: cleanupJob},
		Version:   "test",
	})
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestSystemStatus(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, http.MethodGet, "/api/system/status", "")

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "test", data["version"])
	cache := data["cache"].(map[string]interface{})
	assert.Equal(t, true, cache["healthy"])
	assert.Equal(t, float64(0), cache["entries"])
}

func TestSystemJobs(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, http.MethodGet, "/api/system/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	jobs := decode(t, w)["data"].([]interface{})
	require.Len(t, jobs, 1)
	assert.Equal(t, "price_cache_cleanup", jobs[0].(map[string]interface{})["name"])

	w = serve(s, http.MethodPost, "/api/system/jobs/cache-cleanup", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode(t, w)["data"].(map[string]interface{})["status"])
}

func TestModuleRoutesMounted(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"simulate", http.MethodPost, "/api/portfolio/simulate", `{"symbols":["AAA","BBB"],"weights":[0.5,0.5],"start_date":"2024-01-02"}`},
		{"compare", http.MethodPost, "/api/portfolio/compare", `{"portfolios":[{"symbols":["AAA"],"weights":[1],"start_date":"2024-01-02"}]}`},
		{"frontier", http.MethodPost, "/api/portfolio/frontier", `{"symbols":["AAA","BBB"],"start_date":"2024-01-02","num_portfolios":20}`},
		{"prediction", http.MethodGet, "/api/prediction/AAA", ""},
		{"indicators", http.MethodGet, "/api/indicators/AAA", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Contains(t, body, "data")
			assert.Contains(t, body, "metadata")
		})
	}
}

func TestErrorBody(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, http.MethodGet, "/api/indicators/NOPE", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	errBody := decode(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "data_unavailable", errBody["kind"])
	assert.NotEmpty(t, errBody["message"])
}

func TestRequestIDPropagates(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/jobs", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	meta := decode(t, w)["metadata"].(map[string]interface{})
	assert.Equal(t, "req-123", meta["request_id"])
}
