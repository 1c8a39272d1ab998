package dto

// WebhookAck acknowledges a handled delivery
type WebhookAck struct {
	Status string `json:"status"`
}

// WebhookProbeResponse answers GET on a webhook route
type WebhookProbeResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
