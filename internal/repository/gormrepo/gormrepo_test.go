package gormrepo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository"
)

func openTestStore(t *testing.T) *repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	store, err := Open(context.Background(), Config{DSN: "file:" + name + "?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if store.Mode != "sqlite" {
		t.Fatalf("expected sqlite mode, got %s", store.Mode)
	}
	return store
}

func TestDialect(t *testing.T) {
	tests := []struct {
		dsn  string
		mode string
		ok   bool
	}{
		{"postgres://u:p@localhost/db", "postgres", true},
		{"host=localhost user=u dbname=db", "postgres", true},
		{"sqlite:/var/lib/dashboard.db", "sqlite", true},
		{"file:test.db", "sqlite", true},
		{"mysql://localhost", "", false},
	}
	for _, tt := range tests {
		_, mode, err := dialect(tt.dsn)
		if (err == nil) != tt.ok {
			t.Errorf("%s: unexpected error %v", tt.dsn, err)
		}
		if mode != tt.mode {
			t.Errorf("%s: mode = %q, want %q", tt.dsn, mode, tt.mode)
		}
	}
}

func TestConversations(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Conversations

	conv := &model.Conversation{UserID: "5511999990000", UserName: "Ana"}
	conv.Append(model.Message{ID: "m1", Text: "oi", Type: model.MessageTypeText, Timestamp: "2024-05-01T10:00:00.000Z"})
	if err := repo.Create(ctx, conv); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &model.Conversation{UserID: "5511999990000"}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := repo.Get(ctx, "5511999990000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserName != "Ana" || len(got.Messages) != 1 || got.Unread != 1 {
		t.Errorf("unexpected conversation: %+v", got)
	}

	got.Append(model.Message{ID: "m2", Text: "tudo bem?", Type: model.MessageTypeText, IsBot: true, Timestamp: "2024-05-01T10:00:01.000Z"})
	if _, err := repo.Upsert(ctx, got); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.Upsert(ctx, &model.Conversation{UserID: "other", LastTimestamp: "2024-04-01T00:00:00.000Z"}); err != nil {
		t.Fatalf("upsert other: %v", err)
	}

	convs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(convs) != 2 || convs[0].UserID != "5511999990000" {
		t.Fatalf("unexpected list: %+v", convs)
	}
	if len(convs[0].Messages) != 2 || convs[0].Messages[1].ID != "m2" || !convs[0].Messages[1].IsBot {
		t.Errorf("messages not persisted: %+v", convs[0].Messages)
	}

	if err := repo.MarkRead(ctx, "5511999990000"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	got, _ = repo.Get(ctx, "5511999990000")
	if got.Unread != 0 {
		t.Errorf("expected unread 0, got %d", got.Unread)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.MarkRead(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLeads(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Leads

	lead := &model.Lead{
		UUID:     "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		Telefone: "5511912345678",
		Nome:     "Ana",
		Status:   model.LeadStatusNovo,
	}
	if err := repo.Create(ctx, lead); err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
	dup := &model.Lead{UUID: "b1b2c3d4-e5f6-7890-abcd-ef1234567890", Telefone: "5511912345678", Nome: "Dup"}
	if err := repo.Create(ctx, dup); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	for _, raw := range []string{"A1B2C3D4-E5F6-7890-ABCD-EF1234567890", "5511912345678", "+55 11 91234-5678"} {
		got, err := repo.Find(ctx, model.ParseLeadIdentifier(raw))
		if err != nil {
			t.Errorf("%q: %v", raw, err)
			continue
		}
		if got.UUID != lead.UUID {
			t.Errorf("%q resolved to %s", raw, got.UUID)
		}
	}

	status := model.LeadStatusAgendado
	updated, err := repo.Update(ctx, model.ParseLeadIdentifier("5511912345678"), model.LeadUpdate{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.LeadStatusAgendado || updated.Nome != "Ana" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	updated, err = repo.Update(ctx, model.ParseLeadIdentifier(lead.UUID), model.LeadUpdate{Email: model.NullableOf("ana@example.com")})
	if err != nil || updated.Email == nil || *updated.Email != "ana@example.com" {
		t.Fatalf("set email: %v %+v", err, updated)
	}
	updated, err = repo.Update(ctx, model.ParseLeadIdentifier(lead.UUID), model.LeadUpdate{Email: model.Null[string]()})
	if err != nil || updated.Email != nil {
		t.Fatalf("explicit null should clear the email: %v %+v", err, updated)
	}

	id := model.ParseLeadIdentifier(lead.UUID)
	if err := repo.SetTrava(ctx, id, true); err != nil {
		t.Fatalf("set trava: %v", err)
	}
	got, _ := repo.Find(ctx, id)
	if !got.Trava {
		t.Error("trava not persisted")
	}

	deleted, err := repo.Delete(ctx, id)
	if err != nil || deleted.Telefone != "5511912345678" {
		t.Fatalf("delete: %v %+v", err, deleted)
	}
	if _, err := repo.Find(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.SetTrava(ctx, id, false); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuickMessages(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).QuickMessages

	for i, id := range []string{"a", "b", "c"} {
		qm := &model.QuickMessage{ID: id, Text: strings.ToUpper(id), Category: "general", Order: i, Enabled: id != "c"}
		if err := repo.Create(ctx, qm); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	enabled, err := repo.List(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(enabled) != 2 {
		t.Errorf("expected 2 enabled, got %d", len(enabled))
	}

	if err := repo.Reorder(ctx, []string{"c", "a", "b"}); err != nil {
		t.Fatal(err)
	}
	all, _ := repo.List(ctx, true)
	if len(all) != 3 || all[0].ID != "c" || all[1].ID != "a" || all[2].ID != "b" {
		t.Errorf("unexpected order after reorder: %+v", all)
	}

	text := "Bom dia!"
	got, err := repo.Update(ctx, "a", model.QuickMessageUpdate{Text: &text})
	if err != nil || got.Text != text {
		t.Fatalf("update: %v %+v", err, got)
	}
	if _, err := repo.Update(ctx, "missing", model.QuickMessageUpdate{Text: &text}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(ctx, "a"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
