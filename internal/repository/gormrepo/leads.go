package gormrepo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository"
)

// LeadRepository stores leads in the leads table.
type LeadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a repository on db.
func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) List(ctx context.Context) ([]model.Lead, error) {
	var rows []leadRow
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	leads := make([]model.Lead, len(rows))
	for i := range rows {
		leads[i] = *rows[i].toModel()
	}
	return leads, nil
}

// where scopes a query to the lead id points to.
func where(tx *gorm.DB, id model.LeadIdentifier) *gorm.DB {
	if id.IsUUID() {
		return tx.Where("id = ?", strings.ToLower(id.Raw))
	}
	if id.Digits == "" || id.Digits == id.Raw {
		return tx.Where("telefone = ?", id.Raw)
	}
	return tx.Where("telefone = ? OR telefone = ?", id.Raw, id.Digits)
}

func (r *LeadRepository) find(tx *gorm.DB, id model.LeadIdentifier) (*leadRow, error) {
	var row leadRow
	if err := where(tx, id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *LeadRepository) Find(ctx context.Context, id model.LeadIdentifier) (*model.Lead, error) {
	row, err := r.find(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *model.Lead) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&leadRow{}).Where("telefone = ?", lead.Telefone).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check lead phone: %w", err)
		}
		if count > 0 {
			return repository.ErrConflict
		}
		row := toLeadRow(lead)
		if err := tx.Create(row).Error; err != nil {
			return translate(err)
		}
		lead.CreatedAt = row.CreatedAt
		return nil
	})
}

func (r *LeadRepository) Update(ctx context.Context, id model.LeadIdentifier, upd model.LeadUpdate) (*model.Lead, error) {
	var out *model.Lead
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.find(tx, id)
		if err != nil {
			return err
		}
		if cols := leadColumns(upd); len(cols) > 0 {
			if err := tx.Model(row).Updates(cols).Error; err != nil {
				return translate(err)
			}
		}
		updated, err := r.find(tx, model.ParseLeadIdentifier(row.ID))
		if err != nil {
			return err
		}
		out = updated.toModel()
		return nil
	})
	return out, err
}

func (r *LeadRepository) Delete(ctx context.Context, id model.LeadIdentifier) (*model.Lead, error) {
	var out *model.Lead
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.find(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&leadRow{}, "id = ?", row.ID).Error; err != nil {
			return fmt.Errorf("failed to delete lead: %w", err)
		}
		out = row.toModel()
		return nil
	})
	return out, err
}

func (r *LeadRepository) SetTrava(ctx context.Context, id model.LeadIdentifier, trava bool) error {
	res := where(r.db.WithContext(ctx).Model(&leadRow{}), id).Update("trava", trava)
	if res.Error != nil {
		return fmt.Errorf("failed to update trava: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
