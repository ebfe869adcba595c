package session

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/clock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateStore holds small per-session values such as the active organization.
type StateStore interface {
	Get(ctx context.Context, sessionID snowflake.ID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID snowflake.ID, key, value string) error
	Delete(ctx context.Context, sessionID snowflake.ID, key string) error
}

type dbStateStore struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewDBStateStore keeps session values in the session_values table.
func NewDBStateStore(db *gorm.DB, clk clock.Clock) StateStore {
	return &dbStateStore{db: db, clock: clk}
}

func (s *dbStateStore) Get(ctx context.Context, sessionID snowflake.ID, key string) (string, bool, error) {
	var row domain.SessionValue
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND state_key = ?", sessionID, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (s *dbStateStore) Set(ctx context.Context, sessionID snowflake.ID, key, value string) error {
	row := domain.SessionValue{
		SessionID: sessionID,
		Key:       key,
		Value:     value,
		UpdatedAt: s.now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (s *dbStateStore) Delete(ctx context.Context, sessionID snowflake.ID, key string) error {
	return s.db.WithContext(ctx).
		Where("session_id = ? AND state_key = ?", sessionID, key).
		Delete(&domain.SessionValue{}).Error
}

func (s *dbStateStore) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}
