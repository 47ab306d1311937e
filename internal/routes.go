package internal

import (
	"net/http"
	"statpulse/internal/controllers"
	"statpulse/internal/providers"
)

// InitSinkRoutes registers the delivery protocol and the display endpoints.
func InitSinkRoutes(sinkController *controllers.SinkController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/api/heartbeat", http.HandlerFunc(sinkController.Heartbeat))
	routers.Post("/api/data", http.HandlerFunc(sinkController.Data))
	routers.Get("/api/status", http.HandlerFunc(sinkController.Status))
	routers.Get("/api/notifications", http.HandlerFunc(sinkController.Notifications))
	routers.Post("/api/notifications/clear", http.HandlerFunc(sinkController.ClearNotifications))
	return routers
}

// InitAgentRoutes registers the ingest endpoint and the producer controls.
func InitAgentRoutes(agentController *controllers.AgentController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/ingest", http.HandlerFunc(agentController.Ingest))
	routers.Get("/snapshot", http.HandlerFunc(agentController.Snapshot))
	routers.Get("/notifications", http.HandlerFunc(agentController.Notifications))
	routers.Get("/session", http.HandlerFunc(agentController.Session))
	routers.Post("/session/connect", http.HandlerFunc(agentController.Connect))
	routers.Post("/session/disconnect", http.HandlerFunc(agentController.Disconnect))
	return routers
}
