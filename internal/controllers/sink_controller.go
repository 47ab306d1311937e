package controllers

import (
	"go.uber.org/atomic"
	"net/http"
	"statpulse/internal/models"
	"statpulse/internal/providers"
	"statpulse/internal/services"
)

const statusCacheKey = "status"

type SinkController struct {
	logger  providers.Logger
	service services.SinkServiceInterface
	cache   providers.CacheProviderInterface
	// bumped on every state change; guards against caching a stale render
	version *atomic.Int64
}

// NewSinkController serves the delivery protocol. The rendered status is
// cached until the next change of the sink state.
func NewSinkController(logger providers.Logger, service services.SinkServiceInterface, cache providers.CacheProviderInterface) *SinkController {
	sc := &SinkController{
		logger:  logger,
		service: service,
		cache:   cache,
		version: atomic.NewInt64(0),
	}
	service.Subscribe(func() {
		sc.version.Inc()
		cache.Del(statusCacheKey)
	})
	return sc
}

func (sc *SinkController) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req models.HeartbeatRequest
	if err := decodeJSON(w, r, maxProtocolBodySize, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Bad Request"})
		return
	}
	ack, err := sc.service.Heartbeat(req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (sc *SinkController) Data(w http.ResponseWriter, r *http.Request) {
	var req models.DataRequest
	if err := decodeJSON(w, r, maxProtocolBodySize, &req); err != nil {
		sc.logger.Warnf(providers.TypePost, "Data push rejected: %s", err)
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Bad Request"})
		return
	}
	ack, err := sc.service.Data(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (sc *SinkController) Status(w http.ResponseWriter, r *http.Request) {
	if data, ok := sc.cache.Get(statusCacheKey); ok {
		writeRaw(w, http.StatusOK, data)
		return
	}
	version := sc.version.Load()
	gson, err := statusJSON(sc.service.Status())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if sc.version.Load() == version {
		sc.cache.Set(statusCacheKey, gson)
	}
	writeRaw(w, http.StatusOK, gson)
}

func (sc *SinkController) Notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]models.NotificationEvent{
		"notifications": sc.service.Notifications(),
	})
}

func (sc *SinkController) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	sc.service.ClearNotifications()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
