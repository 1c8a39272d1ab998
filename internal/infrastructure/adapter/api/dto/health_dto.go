package dto

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Pool     any    `json:"pool,omitempty"`
	Time     string `json:"time"`
}
