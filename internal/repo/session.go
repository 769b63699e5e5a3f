package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

// SessionStorage keeps one shopper session's keys in session_entries.
type SessionStorage struct {
	DB        *gorm.DB
	SessionID string
}

func (s *SessionStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var e models.SessionEntry
	res := s.DB.WithContext(ctx).
		Where("session_id = ? AND name = ?", s.SessionID, key).
		Limit(1).
		Find(&e)
	if res.Error != nil {
		return "", false, res.Error
	}
	if res.RowsAffected == 0 {
		return "", false, nil
	}
	return e.Value, true, nil
}

func (s *SessionStorage) Set(ctx context.Context, key, value string) error {
	e := models.SessionEntry{SessionID: s.SessionID, Name: key, Value: value}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (s *SessionStorage) Remove(ctx context.Context, key string) error {
	return s.DB.WithContext(ctx).
		Where("session_id = ? AND name = ?", s.SessionID, key).
		Delete(&models.SessionEntry{}).Error
}
