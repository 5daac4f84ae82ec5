package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository"
)

// ConversationRepository stores conversations in the conversations table.
// Messages are kept as a JSON array on the row.
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a repository on db.
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) List(ctx context.Context) ([]model.Conversation, error) {
	var rows []conversationRow
	if err := r.db.WithContext(ctx).Order("last_timestamp desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	convs := make([]model.Conversation, len(rows))
	for i := range rows {
		convs[i] = *rows[i].toModel()
	}
	model.SortByLastTimestamp(convs)
	return convs, nil
}

func (r *ConversationRepository) Get(ctx context.Context, userID string) (*model.Conversation, error) {
	var row conversationRow
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&conversationRow{}).Where("user_id = ?", conv.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check conversation: %w", err)
		}
		if count > 0 {
			return repository.ErrConflict
		}
		if err := tx.Create(toConversationRow(conv)).Error; err != nil {
			return translate(err)
		}
		return nil
	})
}

func (r *ConversationRepository) Upsert(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	row := toConversationRow(conv)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return row.toModel(), nil
}

func (r *ConversationRepository) MarkRead(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).Model(&conversationRow{}).
		Where("user_id = ?", userID).
		Update("unread", 0)
	if res.Error != nil {
		return fmt.Errorf("failed to mark conversation read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
