package domain

// ServiceHealth describes the health of one dependency.
type ServiceHealth struct {
	Name          string  `json:"name"`
	Status        string  `json:"status"` // healthy, degraded, unhealthy
	LatencyMs     int64   `json:"latency_ms"`
	UptimePercent float64 `json:"uptime_percent"`
	LastChecked   string  `json:"last_checked"`
}

// HealthStatus is the aggregate health report returned by /healthz.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// OpsMetrics is a point-in-time snapshot of operational counters,
// served by GET /v1/metrics/ops.
type OpsMetrics struct {
	TotalRequests    int64   `json:"total_requests"`
	ErrorRate        float64 `json:"error_rate"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	PaymentsAccepted int64   `json:"payments_accepted"`
	PaymentsRejected int64   `json:"payments_rejected"`
	Period           string  `json:"period"`
}
