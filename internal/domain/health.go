package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// MessageMetrics is returned by GET /v1/metrics/messages.
type MessageMetrics struct {
	MessagesSent   int64            `json:"messagesSent"`
	MessagesFailed int64            `json:"messagesFailed"`
	ByType         map[string]int64 `json:"byType"`
	TokenFetches   int64            `json:"tokenFetches"`
	PlatformErrors map[string]int64 `json:"platformErrors"`
	ErrorRate      float64          `json:"errorRate"`
	Period         string           `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
