package controllers

import (
	"errors"
	"io"
	"net/http"
	"statpulse/internal/models"
	"statpulse/internal/providers"
	"statpulse/internal/services"
	"statpulse/internal/structures"
)

type AgentController struct {
	logger      providers.Logger
	service     services.EngineServiceInterface
	maxBodySize int64
}

func NewAgentController(logger providers.Logger, service services.EngineServiceInterface, conf *structures.Config) *AgentController {
	limit := conf.Agent.MaxBodySize
	if limit <= 0 {
		limit = maxProtocolBodySize
	}
	return &AgentController{
		logger:      logger,
		service:     service,
		maxBodySize: limit,
	}
}

// Ingest accepts one raw analytics payload. Malformed nodes are reported,
// not failed.
func (ac *AgentController) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ac.maxBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	result, err := ac.service.Ingest(raw)
	if err != nil {
		ac.logger.Warnf(providers.TypeIngest, "Undecodable payload: %s", err)
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Bad Request"})
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (ac *AgentController) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.service.Snapshot())
}

func (ac *AgentController) Notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]models.NotificationEvent{
		"notifications": ac.service.Pending(),
	})
}

func (ac *AgentController) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.service.Session())
}

func (ac *AgentController) Connect(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.service.Connect())
}

func (ac *AgentController) Disconnect(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.service.Disconnect())
}
