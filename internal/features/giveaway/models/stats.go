package models

// PingUsage counts requests by mention type.
type PingUsage struct {
	Everyone int `json:"everyone"`
	Here     int `json:"here"`
	Other    int `json:"other"`
}

// MonthlyCount is the number of requests made in one calendar month.
type MonthlyCount struct {
	Month string `json:"month"` // e.g. "May 2025"
	Count int    `json:"count"`
}

// ServerCount is the number of requests naming one partner server.
type ServerCount struct {
	ServerName string `json:"server_name"`
	Count      int    `json:"count"`
}

// PerformanceStats is the aggregate view served to the dashboard.
type PerformanceStats struct {
	TotalGiveaways        int            `json:"total_giveaways"`
	CompletedGiveaways    int            `json:"completed_giveaways"`
	PendingGiveaways      int            `json:"pending_giveaways"`
	DeniedGiveaways       int            `json:"denied_giveaways"`
	AverageTimeToApproval float64        `json:"average_time_to_approval"` // hours
	AverageServerSize     int            `json:"average_server_size"`
	PingUsageStats        PingUsage      `json:"ping_usage_stats"`
	MonthlyGiveaways      []MonthlyCount `json:"monthly_giveaways"`
	PopularServers        []ServerCount  `json:"popular_servers"`
}
