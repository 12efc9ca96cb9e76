package repository

import (
	"context"
	"errors"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWebIdentityRepository implements the WebIdentityRepository interface
type GormWebIdentityRepository struct {
	db *gorm.DB
}

// NewGormWebIdentityRepository creates a new GORM web identity repository
func NewGormWebIdentityRepository(db *gorm.DB) repository.WebIdentityRepository {
	return &GormWebIdentityRepository{
		db: db,
	}
}

// WebIdentities GORM model for database mapping
type WebIdentities struct {
	ID            string  `gorm:"column:id;primaryKey"`
	Email         string  `gorm:"column:email"`
	BotIdentityID *string `gorm:"column:bot_identity_id;uniqueIndex"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName overrides the default table name
func (WebIdentities) TableName() string {
	return "web_identities"
}

func toEntity(model *WebIdentities) *entity.WebIdentity {
	return &entity.WebIdentity{
		ID:            model.ID,
		Email:         model.Email,
		BotIdentityID: model.BotIdentityID,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// FindByID finds a web identity by id
func (r *GormWebIdentityRepository) FindByID(ctx context.Context, id string) (*entity.WebIdentity, error) {
	var model WebIdentities
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, entity.ErrIdentityNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return toEntity(&model), nil
}

// FindByBotID finds the web identity bound to a bot identity
func (r *GormWebIdentityRepository) FindByBotID(ctx context.Context, botID string) (*entity.WebIdentity, error) {
	var model WebIdentities
	result := r.db.WithContext(ctx).Where("bot_identity_id = ?", botID).First(&model)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, entity.ErrIdentityNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return toEntity(&model), nil
}

// BindBot sets the bot binding on a web identity. The unique index on
// bot_identity_id keeps a bot identity bound to at most one web identity
// even under concurrent confirms.
func (r *GormWebIdentityRepository) BindBot(ctx context.Context, webID, botID string) error {
	result := r.db.WithContext(ctx).
		Model(&WebIdentities{}).
		Where("id = ?", webID).
		Update("bot_identity_id", botID)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return entity.ErrAlreadyLinked
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entity.ErrIdentityNotFound
	}
	return nil
}

// UnbindBot clears the binding and returns the bot identity that was
// bound. The row is locked for the duration of the transaction so a
// binding written by a concurrent confirm is never silently cleared.
func (r *GormWebIdentityRepository) UnbindBot(ctx context.Context, webID string) (string, error) {
	var botID string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model WebIdentities
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", webID).
			First(&model)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return entity.ErrIdentityNotFound
		}
		if result.Error != nil {
			return result.Error
		}
		if model.BotIdentityID == nil {
			return nil
		}

		botID = *model.BotIdentityID
		return tx.Model(&WebIdentities{}).
			Where("id = ?", webID).
			Update("bot_identity_id", nil).Error
	})
	if err != nil {
		return "", err
	}
	return botID, nil
}
