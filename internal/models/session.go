package models

import "time"

type Session struct {
	ID              string    `json:"sessionId"`
	CreatedAt       time.Time `json:"createdAt"`
	LastHeartbeatAt time.Time `json:"lastHeartbeatAt"`
}

// HeartbeatRequest is the body of POST /api/heartbeat.
type HeartbeatRequest struct {
	SessionID string `json:"sessionId"`
}

// DataRequest is the body of POST /api/data.
type DataRequest struct {
	SessionID     string              `json:"sessionId"`
	Data          *Snapshot           `json:"data,omitempty"`
	Notifications []NotificationEvent `json:"notifications,omitempty"`
}

// Ack acknowledges a heartbeat or data push for SessionID.
type Ack struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
}

type ErrorResponse struct {
	Error            string `json:"error"`
	CurrentSessionID string `json:"currentSessionId,omitempty"`
}

// SinkStatus is the read-only view served to display clients.
type SinkStatus struct {
	Connected     bool                `json:"connected"`
	SessionID     string              `json:"sessionId,omitempty"`
	LastHeartbeat int64               `json:"lastHeartbeat,omitempty"`
	Data          *Snapshot           `json:"data"`
	Notifications []NotificationEvent `json:"notifications"`
}

// SinkState is what the sink persists across restarts: the latest view only.
type SinkState struct {
	Data          *Snapshot           `json:"data"`
	Notifications []NotificationEvent `json:"notifications"`
}
