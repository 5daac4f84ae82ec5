package model

import (
	"encoding/json"
	"testing"
)

func TestParseLeadIdentifier_UUID(t *testing.T) {
	id := ParseLeadIdentifier("A1B2C3D4-E5F6-7890-ABCD-EF1234567890")
	if !id.IsUUID() {
		t.Fatal("expected uuid identifier")
	}

	lead := &Lead{UUID: "a1b2c3d4-e5f6-7890-abcd-ef1234567890", Telefone: "5511912345678"}
	if !id.Matches(lead) {
		t.Error("uuid lookup should be case insensitive")
	}
}

func TestParseLeadIdentifier_Phone(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"5511912345678", true},
		{"+55 11 91234-5678", true},
		{"(55) 11 91234 5678", true},
		{"551191234567", false},
	}

	lead := &Lead{UUID: "a1b2c3d4-e5f6-7890-abcd-ef1234567890", Telefone: "5511912345678"}
	for _, tt := range tests {
		id := ParseLeadIdentifier(tt.raw)
		if id.IsUUID() {
			t.Errorf("%q: classified as uuid", tt.raw)
		}
		if got := id.Matches(lead); got != tt.want {
			t.Errorf("%q: Matches = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseLeadIdentifier_NotQuiteUUID(t *testing.T) {
	for _, raw := range []string{
		"a1b2c3d4e5f67890abcdef1234567890",
		"a1b2c3d4-e5f6-7890-abcd-ef123456789",
		"g1b2c3d4-e5f6-7890-abcd-ef1234567890",
	} {
		if ParseLeadIdentifier(raw).IsUUID() {
			t.Errorf("%q should resolve by phone", raw)
		}
	}
}

func TestMatchesPhone_NoDigits(t *testing.T) {
	id := ParseLeadIdentifier("abc")
	if id.MatchesPhone("") {
		t.Error("an identifier without digits must not match an empty phone")
	}
}

func TestMessagePreview(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"text", Message{Type: MessageTypeText, Text: "olá"}, "olá"},
		{"audio", Message{Type: MessageTypeAudio, Text: "https://cdn/a.ogg"}, "🎤 Áudio"},
		{"file named", Message{Type: MessageTypeFile, Text: "https://cdn/x", FileName: "contrato.pdf"}, "📎 contrato.pdf"},
		{"file unnamed", Message{Type: MessageTypeFile, Text: "https://cdn/x"}, "📎 Arquivo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Preview(); got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageOrigin(t *testing.T) {
	if (Message{IsBot: true}).Origin() != OriginBot {
		t.Error("expected bot")
	}
	if (Message{IsAgent: true}).Origin() != OriginAgent {
		t.Error("expected agent")
	}
	if (Message{}).Origin() != OriginUser {
		t.Error("expected user")
	}
}

func TestConversationAppend(t *testing.T) {
	conv := &Conversation{UserID: "u1"}

	conv.Append(Message{ID: "1", Text: "oi", Type: MessageTypeText, Timestamp: "2024-05-01T10:00:00.000Z"})
	conv.Append(Message{ID: "2", Text: "resposta", Type: MessageTypeText, IsBot: true, Timestamp: "2024-05-01T10:00:01.000Z"})
	conv.Append(Message{ID: "3", Text: "https://cdn/a.ogg", Type: MessageTypeAudio, Timestamp: "2024-05-01T10:00:02.000Z"})
	conv.Append(Message{ID: "4", Text: "ok", Type: MessageTypeText, IsAgent: true, Timestamp: "2024-05-01T10:00:03.000Z"})

	if len(conv.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(conv.Messages))
	}
	if conv.Unread != 2 {
		t.Errorf("expected unread 2 (user messages only), got %d", conv.Unread)
	}
	if conv.LastMessage != "ok" || conv.LastTimestamp != "2024-05-01T10:00:03.000Z" {
		t.Errorf("unexpected preview %q at %q", conv.LastMessage, conv.LastTimestamp)
	}
}

func TestConversationClone(t *testing.T) {
	conv := &Conversation{UserID: "u1", Messages: []Message{{ID: "1"}}}
	cp := conv.Clone()
	cp.Messages[0].ID = "changed"
	cp.Messages = append(cp.Messages, Message{ID: "2"})

	if conv.Messages[0].ID != "1" || len(conv.Messages) != 1 {
		t.Error("clone shares state with original")
	}
}

func TestSortByLastTimestamp(t *testing.T) {
	convs := []Conversation{
		{UserID: "old", LastTimestamp: "2024-01-01T00:00:00Z"},
		{UserID: "bad", LastTimestamp: "yesterday"},
		{UserID: "new", LastTimestamp: "2024-03-01T00:00:00.000Z"},
		{UserID: "mid", LastTimestamp: "2024-02-01T00:00:00+03:00"},
	}
	SortByLastTimestamp(convs)

	want := []string{"new", "mid", "old", "bad"}
	for i, id := range want {
		if convs[i].UserID != id {
			t.Fatalf("position %d: got %s, want %s", i, convs[i].UserID, id)
		}
	}
}

func TestLeadUpdateApply(t *testing.T) {
	email := "a@b.com"
	lead := &Lead{Nome: "Ana", Telefone: "1", Status: LeadStatusNovo, Observacoes: "x"}
	status := LeadStatusContato
	LeadUpdate{Status: &status, Email: NullableOf(email)}.Apply(lead)

	if lead.Status != LeadStatusContato || lead.Email == nil || *lead.Email != email {
		t.Errorf("update not applied: %+v", lead)
	}
	if lead.Nome != "Ana" || lead.Observacoes != "x" {
		t.Error("fields left nil must not change")
	}

	LeadUpdate{}.Apply(lead)
	if lead.Email == nil {
		t.Fatal("absent email must be left unchanged")
	}
	LeadUpdate{Email: Null[string]()}.Apply(lead)
	if lead.Email != nil {
		t.Errorf("explicit null must clear the email, got %q", *lead.Email)
	}
}

func TestLeadUpdateDecodesNull(t *testing.T) {
	tests := []struct {
		body      string
		wantSet   bool
		wantValue string
		wantNil   bool
	}{
		{`{}`, false, "", true},
		{`{"email": null}`, true, "", true},
		{`{"email": ""}`, true, "", false},
		{`{"email": "a@b.com"}`, true, "a@b.com", false},
	}
	for _, tt := range tests {
		var upd LeadUpdate
		if err := json.Unmarshal([]byte(tt.body), &upd); err != nil {
			t.Fatalf("%s: %v", tt.body, err)
		}
		if upd.Email.Set != tt.wantSet || (upd.Email.Value == nil) != tt.wantNil {
			t.Errorf("%s: set=%v value=%v", tt.body, upd.Email.Set, upd.Email.Value)
			continue
		}
		if !tt.wantNil && *upd.Email.Value != tt.wantValue {
			t.Errorf("%s: got %q", tt.body, *upd.Email.Value)
		}
	}

	if err := json.Unmarshal([]byte(`{"email": 12}`), &LeadUpdate{}); err == nil {
		t.Error("expected error for non-string email")
	}
}

func TestQuickMessageUpdateClearsOptionalFields(t *testing.T) {
	emoji, shortcut := "👋", "/oi"
	qm := &QuickMessage{Text: "Olá", Emoji: &emoji, Shortcut: &shortcut}

	var upd QuickMessageUpdate
	if err := json.Unmarshal([]byte(`{"emoji": null}`), &upd); err != nil {
		t.Fatal(err)
	}
	upd.Apply(qm)
	if qm.Emoji != nil {
		t.Error("emoji should be cleared")
	}
	if qm.Shortcut == nil || *qm.Shortcut != "/oi" {
		t.Error("absent shortcut must be left unchanged")
	}
}

func TestLeadStatus(t *testing.T) {
	if !LeadStatusNegociacao.Valid() {
		t.Error("negociacao should be valid")
	}
	if LeadStatus("arquivado").Valid() {
		t.Error("unknown stage should be invalid")
	}
	if !LeadStatusFechado.Won() || LeadStatusPerdido.Won() {
		t.Error("unexpected Won classification")
	}
}
