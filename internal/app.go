package internal

import (
	"context"
	"fmt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"os"
	"os/signal"
	"statpulse/internal/controllers"
	"statpulse/internal/providers"
	"statpulse/internal/services"
	"statpulse/internal/statistic/interfaces"
	"statpulse/internal/structures"
	"strconv"
	"syscall"
	"time"
)

type App struct {
	WebServer *http.Server
}

type SinkApp struct {
	App
}

type AgentApp struct {
	App
}

// newHandler builds the routing tree shared by both roles. Routes from the
// router go through the metrics middleware; /health and /metrics do not.
// Handlers in raw are mounted outside every middleware because they hijack
// the connection.
func newHandler(conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface, health *controllers.HealthController, raw map[string]http.HandlerFunc) http.Handler {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, apiMux)

	// Infrastructure + instrumented API
	infra := http.NewServeMux()
	infra.HandleFunc("/health", health.Health)
	if conf.Metrics.Enabled {
		infra.Handle("/metrics", promhttp.Handler())
	}
	infra.Handle("/", instrumentedAPI)

	mux := http.NewServeMux()
	for url, h := range raw {
		mux.HandleFunc(url, h)
	}
	mux.Handle("/", providers.CORSMiddleware(providers.LoggingMiddleware(logger, infra)))
	return mux
}

func newServer(conf *structures.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// run serves until a shutdown signal or a listener error, then shuts the
// server down gracefully.
func (a *App) run(conf *structures.Config, logger providers.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := a.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.WebServer.Shutdown(ctx)
}

// NewSinkApp runs the sink until it is told to stop.
func NewSinkApp(healthController *controllers.HealthController, broadcaster *controllers.StatusBroadcaster, scheduler interfaces.SchedulerInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) (*SinkApp, error) {
	handler := newHandler(conf, logger, router, metrics, healthController, map[string]http.HandlerFunc{
		"/ws": broadcaster.Handler,
	})

	logger.Infof(providers.TypeApp, "Starting %s sink", conf.AppName)
	err := scheduler.Restore()
	if err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	app := &SinkApp{App{WebServer: newServer(conf, handler)}}

	scheduler.Init()
	defer scheduler.Close()

	err = app.run(conf, logger)
	scheduler.Stop()
	if err != nil {
		return nil, err
	}

	err = scheduler.Persist()
	if err != nil {
		return nil, err
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}

// NewAgentApp runs the producer until it is told to stop.
func NewAgentApp(healthController *controllers.HealthController, engine services.EngineServiceInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) (*AgentApp, error) {
	handler := newHandler(conf, logger, router, metrics, healthController, nil)

	logger.Infof(providers.TypeApp, "Starting %s agent, sink at %s", conf.AppName, conf.Agent.SinkURL)
	if conf.Path != "" {
		if err := providers.WatchHotStreak(conf, logger, engine.ConfigureHotStreak); err != nil {
			logger.Warnf(providers.TypeApp, "Config watch disabled: %s", err)
		}
	}

	app := &AgentApp{App{WebServer: newServer(conf, handler)}}

	engine.Start()
	err := app.run(conf, logger)
	engine.Stop()
	if err != nil {
		return nil, err
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}
