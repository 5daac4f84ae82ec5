package model

import (
	"regexp"
	"strings"
	"time"
)

// LeadStatus is a pipeline stage.
type LeadStatus string

const (
	LeadStatusNovo       LeadStatus = "novo"
	LeadStatusContato    LeadStatus = "contato"
	LeadStatusAgendado   LeadStatus = "agendado"
	LeadStatusNegociacao LeadStatus = "negociacao"
	LeadStatusCompareceu LeadStatus = "compareceu"
	LeadStatusConvertido LeadStatus = "convertido"
	LeadStatusFechado    LeadStatus = "fechado"
	LeadStatusPerdido    LeadStatus = "perdido"
)

// LeadStatuses lists every known stage in pipeline order.
var LeadStatuses = []LeadStatus{
	LeadStatusNovo,
	LeadStatusContato,
	LeadStatusAgendado,
	LeadStatusNegociacao,
	LeadStatusCompareceu,
	LeadStatusConvertido,
	LeadStatusFechado,
	LeadStatusPerdido,
}

// Valid reports whether s is a known pipeline stage.
func (s LeadStatus) Valid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Won reports whether the stage counts as a conversion.
func (s LeadStatus) Won() bool {
	return s == LeadStatusConvertido || s == LeadStatusFechado
}

// Lead is a CRM contact moving through the pipeline.
type Lead struct {
	UUID        string     `json:"uuid"`
	Telefone    string     `json:"telefone"`
	Nome        string     `json:"nome"`
	Email       *string    `json:"email"`
	Status      LeadStatus `json:"status"`
	Trava       bool       `json:"trava"`
	Observacoes string     `json:"observacoes"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateLeadRequest is the payload for a manually added lead.
type CreateLeadRequest struct {
	Telefone    string     `json:"telefone"`
	Nome        string     `json:"nome"`
	Email       *string    `json:"email,omitempty"`
	Status      LeadStatus `json:"status,omitempty"`
	Observacoes string     `json:"observacoes,omitempty"`
}

// LeadUpdate is a partial update. A nil field is left unchanged; Email
// is cleared by an explicit null.
type LeadUpdate struct {
	Nome        *string          `json:"nome,omitempty"`
	Telefone    *string          `json:"telefone,omitempty"`
	Email       Nullable[string] `json:"email"`
	Status      *LeadStatus      `json:"status,omitempty"`
	Observacoes *string          `json:"observacoes,omitempty"`
}

// Apply copies every provided field onto l.
func (u LeadUpdate) Apply(l *Lead) {
	if u.Nome != nil {
		l.Nome = *u.Nome
	}
	if u.Telefone != nil {
		l.Telefone = *u.Telefone
	}
	u.Email.applyTo(&l.Email)
	if u.Status != nil {
		l.Status = *u.Status
	}
	if u.Observacoes != nil {
		l.Observacoes = *u.Observacoes
	}
}

// UpdateLeadStatusRequest is the body of PUT /api/leads/{identifier}/status.
type UpdateLeadStatusRequest struct {
	Status LeadStatus `json:"status"`
}

// SetTravaRequest is the body of POST /api/leads/{userId}/trava.
type SetTravaRequest struct {
	Trava *bool `json:"trava"`
}

// TravaStatus is the lock flag for one user.
type TravaStatus struct {
	UserID string `json:"userId"`
	Trava  bool   `json:"trava"`
}

// IdentifierKind tells how a lead identifier must be resolved.
type IdentifierKind int

const (
	IdentifierPhone IdentifierKind = iota
	IdentifierUUID
)

var uuidShape = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// LeadIdentifier is a lead reference that is either a UUID or a phone
// number. It is parsed once at the boundary.
type LeadIdentifier struct {
	Kind   IdentifierKind
	Raw    string
	Digits string
}

// ParseLeadIdentifier classifies raw as UUID or phone.
func ParseLeadIdentifier(raw string) LeadIdentifier {
	id := LeadIdentifier{Raw: raw, Digits: OnlyDigits(raw)}
	if uuidShape.MatchString(raw) {
		id.Kind = IdentifierUUID
	}
	return id
}

// IsUUID reports whether the identifier is resolved by id.
func (id LeadIdentifier) IsUUID() bool {
	return id.Kind == IdentifierUUID
}

// MatchesPhone reports whether phone equals the raw or digits-only form.
func (id LeadIdentifier) MatchesPhone(phone string) bool {
	return phone == id.Raw || (id.Digits != "" && phone == id.Digits)
}

// Matches reports whether l is the lead the identifier points to.
func (id LeadIdentifier) Matches(l *Lead) bool {
	if id.IsUUID() {
		return strings.EqualFold(l.UUID, id.Raw)
	}
	return id.MatchesPhone(l.Telefone)
}

func (id LeadIdentifier) String() string {
	return id.Raw
}

// OnlyDigits strips every non-digit character.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
