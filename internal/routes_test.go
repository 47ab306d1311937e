package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"statpulse/internal/clock/clocktest"
	"statpulse/internal/controllers"
	"statpulse/internal/models"
	"statpulse/internal/providers"
	"statpulse/internal/services"
	"statpulse/internal/structures"
	"statpulse/internal/testutil"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func routeTestConfig() *structures.Config {
	return &structures.Config{
		AppName: "statpulse",
		Sink: structures.SinkConfig{
			HeartbeatTimeout: time.Minute,
			SweepInterval:    10 * time.Second,
			MaxNotifications: 50,
		},
		Agent: structures.AgentConfig{
			SinkURL:           "http://localhost:6767",
			HeartbeatInterval: 30 * time.Second,
			RequestTimeout:    time.Second,
			BuildInterval:     250 * time.Millisecond,
			MaxBodySize:       1 << 20,
		},
		HotStreak: structures.HotStreakConfig{Increases: 5, Window: 5 * time.Minute},
		Notifications: structures.NotificationConfig{
			Capacity:     20,
			MaxVisible:   10,
			Backoff:      500 * time.Millisecond,
			Lifetime:     4 * time.Second,
			ExitDelay:    300 * time.Millisecond,
			RedrainDelay: 100 * time.Millisecond,
		},
		Retention: structures.RetentionConfig{Hourly: 48 * time.Hour, Minutely: time.Hour},
	}
}

type nopTransport struct{}

func (nopTransport) Heartbeat(_ context.Context, _ string) error          { return nil }
func (nopTransport) Push(_ context.Context, _ models.DataRequest) error { return nil }

func sinkRouter(t *testing.T) (providers.RouterProviderInterface, services.SinkServiceInterface) {
	t.Helper()
	svc := services.NewSinkService(routeTestConfig(), &testutil.MockLogger{}, testutil.NewMockMetrics(), clocktest.NewClock(t0))
	sc := controllers.NewSinkController(&testutil.MockLogger{}, svc, testutil.NewMockCache())
	return InitSinkRoutes(sc), svc
}

func agentRouter(t *testing.T) providers.RouterProviderInterface {
	t.Helper()
	conf := routeTestConfig()
	engine := services.NewEngineService(conf, &testutil.MockLogger{}, testutil.NewMockMetrics(), clocktest.NewClock(t0), nopTransport{})
	return InitAgentRoutes(controllers.NewAgentController(&testutil.MockLogger{}, engine, conf))
}

func urls(router providers.RouterProviderInterface) map[string]string {
	out := make(map[string]string)
	for _, r := range router.GetRoutes() {
		out[r.Url] = r.Method
	}
	return out
}

func TestInitSinkRoutes_Registered(t *testing.T) {
	router, _ := sinkRouter(t)

	assert.Equal(t, map[string]string{
		"/api/heartbeat":           http.MethodPost,
		"/api/data":                http.MethodPost,
		"/api/status":              http.MethodGet,
		"/api/notifications":       http.MethodGet,
		"/api/notifications/clear": http.MethodPost,
	}, urls(router))
}

func TestInitAgentRoutes_Registered(t *testing.T) {
	assert.Equal(t, map[string]string{
		"/ingest":             http.MethodPost,
		"/snapshot":           http.MethodGet,
		"/notifications":      http.MethodGet,
		"/session":            http.MethodGet,
		"/session/connect":    http.MethodPost,
		"/session/disconnect": http.MethodPost,
	}, urls(agentRouter(t)))
}

func TestInitSinkRoutes_MethodEnforcement(t *testing.T) {
	router, _ := sinkRouter(t)
	mux := http.NewServeMux()
	for _, r := range router.GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}

	// GET /api/heartbeat should fail
	req := httptest.NewRequest(http.MethodGet, "/api/heartbeat", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	// POST /api/status should fail
	req = httptest.NewRequest(http.MethodPost, "/api/status", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestNewHandler_SinkEndToEnd(t *testing.T) {
	router, svc := sinkRouter(t)
	conf := routeTestConfig()
	metrics := testutil.NewMockMetrics()
	health := controllers.NewSinkHealthController(svc)

	srv := httptest.NewServer(newHandler(conf, &testutil.MockLogger{}, router, metrics, health, nil))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/heartbeat", "application/json", strings.NewReader(`{"sessionId":"sp-1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// metrics disabled
	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.True(t, svc.Status().Connected)
	assert.Equal(t, 1, metrics.Requests["/api/heartbeat 200"])
}

func TestNewHandler_Preflight(t *testing.T) {
	router := agentRouter(t)
	health := controllers.NewHealthController("agent", nil)

	req := httptest.NewRequest(http.MethodOptions, "/ingest", nil)
	rr := httptest.NewRecorder()
	newHandler(routeTestConfig(), &testutil.MockLogger{}, router, &testutil.MockMetrics{}, health, nil).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
}

func TestNewHandler_RawHandlersBypassMiddleware(t *testing.T) {
	router := agentRouter(t)
	health := controllers.NewHealthController("agent", nil)
	called := false
	raw := map[string]http.HandlerFunc{
		"/ws": func(w http.ResponseWriter, r *http.Request) {
			_, ok := w.(http.Hijacker)
			called = ok
		},
	}

	srv := httptest.NewServer(newHandler(routeTestConfig(), &testutil.MockLogger{}, router, &testutil.MockMetrics{}, health, raw))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, called)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
