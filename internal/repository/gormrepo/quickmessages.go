package gormrepo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository"
)

// QuickMessageRepository stores templates in the quick_messages table.
type QuickMessageRepository struct {
	db *gorm.DB
}

// NewQuickMessageRepository creates a repository on db.
func NewQuickMessageRepository(db *gorm.DB) *QuickMessageRepository {
	return &QuickMessageRepository{db: db}
}

func (r *QuickMessageRepository) List(ctx context.Context, includeDisabled bool) ([]model.QuickMessage, error) {
	q := r.db.WithContext(ctx).Order("sort_order asc").Order("created_at asc")
	if !includeDisabled {
		q = q.Where("enabled = ?", true)
	}

	var rows []quickMessageRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list quick messages: %w", err)
	}

	out := make([]model.QuickMessage, len(rows))
	for i := range rows {
		out[i] = *rows[i].toModel()
	}
	return out, nil
}

func (r *QuickMessageRepository) Get(ctx context.Context, id string) (*model.QuickMessage, error) {
	var row quickMessageRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

func (r *QuickMessageRepository) Create(ctx context.Context, qm *model.QuickMessage) error {
	row := toQuickMessageRow(qm)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(err)
	}
	qm.CreatedAt = row.CreatedAt
	qm.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *QuickMessageRepository) Update(ctx context.Context, id string, upd model.QuickMessageUpdate) (*model.QuickMessage, error) {
	res := r.db.WithContext(ctx).Model(&quickMessageRow{}).Where("id = ?", id).Updates(quickMessageColumns(upd))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update quick message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *QuickMessageRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&quickMessageRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete quick message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *QuickMessageRepository) Reorder(ctx context.Context, orderedIDs []string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			err := tx.Model(&quickMessageRow{}).Where("id = ?", id).
				Updates(map[string]any{"sort_order": i, "updated_at": now}).Error
			if err != nil {
				return fmt.Errorf("failed to reorder quick message %s: %w", id, err)
			}
		}
		return nil
	})
}
