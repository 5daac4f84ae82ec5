package model

// MetricsPeriod is the aggregation window for dashboard statistics.
type MetricsPeriod string

const (
	PeriodToday MetricsPeriod = "today"
	PeriodWeek  MetricsPeriod = "week"
	PeriodMonth MetricsPeriod = "month"
	PeriodAll   MetricsPeriod = "all"
)

// Valid reports whether p is a known period.
func (p MetricsPeriod) Valid() bool {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return true
	}
	return false
}

// DashboardMetrics is the response of GET /api/metrics.
type DashboardMetrics struct {
	Period              MetricsPeriod      `json:"period"`
	ActiveConversations int                `json:"activeConversations"`
	TotalConversations  int                `json:"totalConversations"`
	UnreadTotal         int                `json:"unreadTotal"`
	Messages            MessageCounts      `json:"messages"`
	Leads               LeadCounts         `json:"leads"`
	LeadsByStatus       map[LeadStatus]int `json:"leadsByStatus"`
	ConversionRate      float64            `json:"conversionRate"`
}

// MessageCounts splits messages in the window by origin.
type MessageCounts struct {
	Total int `json:"total"`
	User  int `json:"user"`
	Bot   int `json:"bot"`
	Agent int `json:"agent"`
}

// LeadCounts summarizes leads.
type LeadCounts struct {
	Total       int `json:"total"`
	NewInPeriod int `json:"newInPeriod"`
	Locked      int `json:"locked"`
	Converted   int `json:"converted"`
}
