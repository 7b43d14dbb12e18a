package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/marketplace/internal/domain"
)

type SettingRepo struct{ db *gorm.DB }

func NewSettingRepo(db *gorm.DB) *SettingRepo { return &SettingRepo{db: db} }

func (r *SettingRepo) Get(ctx context.Context, key string) (*domain.Setting, error) {
	var s domain.Setting
	if err := r.db.WithContext(ctx).Where(map[string]any{"key": key}).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettingRepo) Upsert(ctx context.Context, s *domain.Setting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
	}).Create(s).Error
}

func (r *SettingRepo) List(ctx context.Context) ([]domain.Setting, error) {
	list := []domain.Setting{}
	if err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// SeedDefaults inserta los settings que todavía no existen y no toca los que
// ya están configurados.
func (r *SettingRepo) SeedDefaults(ctx context.Context, defaults []domain.Setting) error {
	if len(defaults) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error
}
