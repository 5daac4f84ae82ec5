package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atendimento/crm-dashboard/internal/model"
)

func TestMetricsService_Compute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	f.metrics.now = func() time.Time { return now }

	add := func(userID string, ts time.Time, isBot, isAgent bool) {
		f.conversations.AppendOrCreate(ctx, userID, "", model.Message{
			ID:        userID + ts.String(),
			Text:      "x",
			Type:      model.MessageTypeText,
			IsBot:     isBot,
			IsAgent:   isAgent,
			Timestamp: model.Timestamp(ts),
		})
	}
	add("u1", now.Add(-2*time.Hour), false, false)
	add("u1", now.Add(-time.Hour), true, false)
	add("u1", now.Add(-30*time.Minute), false, true)
	add("u2", now.AddDate(0, 0, -3), false, false)

	f.leads.now = func() time.Time { return now.AddDate(0, 0, -20) }
	createLead(t, f.leads, "111")
	f.leads.now = func() time.Time { return now.Add(-time.Hour) }
	createLead(t, f.leads, "222")
	createLead(t, f.leads, "333")
	f.leads.UpdateStatus(ctx, model.ParseLeadIdentifier("222"), model.LeadStatusFechado)
	f.leads.SetTrava(ctx, model.ParseLeadIdentifier("333"), true)

	today, err := f.metrics.Compute(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if today.Period != model.PeriodToday {
		t.Errorf("expected default period today, got %s", today.Period)
	}
	if today.TotalConversations != 2 || today.ActiveConversations != 1 {
		t.Errorf("conversations: total=%d active=%d", today.TotalConversations, today.ActiveConversations)
	}
	if today.UnreadTotal != 2 {
		t.Errorf("expected unread 2, got %d", today.UnreadTotal)
	}
	want := model.MessageCounts{Total: 3, User: 1, Bot: 1, Agent: 1}
	if today.Messages != want {
		t.Errorf("messages = %+v, want %+v", today.Messages, want)
	}
	if today.Leads.Total != 3 || today.Leads.NewInPeriod != 2 || today.Leads.Locked != 1 || today.Leads.Converted != 1 {
		t.Errorf("unexpected lead counts: %+v", today.Leads)
	}
	if today.ConversionRate != 33.33 {
		t.Errorf("expected conversion 33.33, got %v", today.ConversionRate)
	}
	if today.LeadsByStatus[model.LeadStatusNovo] != 2 || today.LeadsByStatus[model.LeadStatusFechado] != 1 {
		t.Errorf("unexpected status breakdown: %v", today.LeadsByStatus)
	}
	if _, ok := today.LeadsByStatus[model.LeadStatusPerdido]; !ok {
		t.Error("every status must be present in the breakdown")
	}

	week, _ := f.metrics.Compute(ctx, model.PeriodWeek)
	if week.ActiveConversations != 2 || week.Messages.Total != 4 || week.Leads.NewInPeriod != 2 {
		t.Errorf("unexpected week metrics: %+v", week)
	}

	all, _ := f.metrics.Compute(ctx, model.PeriodAll)
	if all.Leads.NewInPeriod != 3 {
		t.Errorf("all period must count every lead, got %d", all.Leads.NewInPeriod)
	}
}

func TestMetricsService_InvalidPeriod(t *testing.T) {
	f := newFixture(t)
	if _, err := f.metrics.Compute(context.Background(), "decade"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestMetricsService_DegradedBackends(t *testing.T) {
	log := testLogger(t)
	svc := NewMetricsService(
		NewConversationService(failingConversations{}, nil, log),
		NewLeadService(failingLeads{}, nil, log),
	)

	m, err := svc.Compute(context.Background(), model.PeriodAll)
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalConversations != 0 || m.Leads.Total != 0 || m.ConversionRate != 0 {
		t.Errorf("expected zero counts, got %+v", m)
	}
}
