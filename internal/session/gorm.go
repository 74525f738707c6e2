package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GlarosConsulting/atena-client/models"
)

// record is the sessions table row.
type record struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"index"`
	Payload   string     `gorm:"type:text;not null"`
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (record) TableName() string { return "sessions" }

// GormStore keeps sessions in a SQL table.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore migrates the sessions table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate sessions: %w", err)
	}
	return &GormStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (g *GormStore) Load(ctx context.Context, id string) (*models.Session, error) {
	var rec record
	err := g.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if rec.ExpiresAt != nil && !g.now().Before(*rec.ExpiresAt) {
		_ = g.Delete(ctx, id)
		return nil, ErrNotFound
	}
	var s models.Session
	if err := json.Unmarshal([]byte(rec.Payload), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (g *GormStore) Save(ctx context.Context, id string, s *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	rec := record{ID: id, UserID: s.User.ID, Payload: string(data)}
	if ttl > 0 {
		exp := g.now().Add(ttl)
		rec.ExpiresAt = &exp
	}
	err = g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "payload", "expires_at", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (g *GormStore) Delete(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Delete(&record{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes expired rows and returns how many went away.
func (g *GormStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := g.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", g.now()).Delete(&record{})
	return res.RowsAffected, res.Error
}
