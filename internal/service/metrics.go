package service

import (
	"context"
	"math"
	"time"

	"github.com/atendimento/crm-dashboard/internal/model"
)

// MetricsService derives dashboard statistics from the conversation store
// and the lead registry. Backend failures yield zero counts.
type MetricsService struct {
	conversations *ConversationService
	leads         *LeadService
	now           func() time.Time
}

// NewMetricsService creates a new metrics service.
func NewMetricsService(conversations *ConversationService, leads *LeadService) *MetricsService {
	return &MetricsService{
		conversations: conversations,
		leads:         leads,
		now:           time.Now,
	}
}

// Compute aggregates statistics for period. An empty period means today.
func (s *MetricsService) Compute(ctx context.Context, period model.MetricsPeriod) (*model.DashboardMetrics, error) {
	if period == "" {
		period = model.PeriodToday
	}
	if !period.Valid() {
		return nil, validationError("unknown period %q", period)
	}

	since := windowStart(s.now(), period)
	out := &model.DashboardMetrics{
		Period:        period,
		LeadsByStatus: make(map[model.LeadStatus]int, len(model.LeadStatuses)),
	}

	convs, _ := s.conversations.GetAll(ctx)
	out.TotalConversations = len(convs)
	for _, conv := range convs {
		out.UnreadTotal += conv.Unread
		if inWindow(conv.LastTimestamp, since) {
			out.ActiveConversations++
		}
		for _, msg := range conv.Messages {
			if !inWindow(msg.Timestamp, since) {
				continue
			}
			out.Messages.Total++
			switch msg.Origin() {
			case model.OriginBot:
				out.Messages.Bot++
			case model.OriginAgent:
				out.Messages.Agent++
			default:
				out.Messages.User++
			}
		}
	}

	for _, status := range model.LeadStatuses {
		out.LeadsByStatus[status] = 0
	}
	leads, _ := s.leads.List(ctx)
	out.Leads.Total = len(leads)
	for _, lead := range leads {
		out.LeadsByStatus[lead.Status]++
		if since.IsZero() || !lead.CreatedAt.Before(since) {
			out.Leads.NewInPeriod++
		}
		if lead.Trava {
			out.Leads.Locked++
		}
		if lead.Status.Won() {
			out.Leads.Converted++
		}
	}
	if out.Leads.Total > 0 {
		rate := float64(out.Leads.Converted) / float64(out.Leads.Total) * 100
		out.ConversionRate = math.Round(rate*100) / 100
	}

	return out, nil
}

// windowStart returns the beginning of the period. The zero time means
// no lower bound.
func windowStart(now time.Time, period model.MetricsPeriod) time.Time {
	switch period {
	case model.PeriodToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case model.PeriodWeek:
		return now.AddDate(0, 0, -7)
	case model.PeriodMonth:
		return now.AddDate(0, -1, 0)
	}
	return time.Time{}
}

// inWindow reports whether an ISO-8601 timestamp is at or after since.
// Unparseable timestamps only count when there is no lower bound.
func inWindow(ts string, since time.Time) bool {
	if since.IsZero() {
		return true
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return false
	}
	return !t.Before(since)
}
