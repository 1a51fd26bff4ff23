package outbox

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultMaxAttempts = 10

type Repository interface {
	Save(ctx context.Context, tx *gorm.DB, ev *Event) error
	Unpublished(ctx context.Context, tx *gorm.DB, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, tx *gorm.DB, id uint64) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uint64, msg string) error
}

type GormRepository struct {
	MaxAttempts int
}

func NewGormRepository() *GormRepository {
	return &GormRepository{MaxAttempts: DefaultMaxAttempts}
}

// Save must run on the same tx as the state change it describes.
func (r *GormRepository) Save(ctx context.Context, tx *gorm.DB, ev *Event) error {
	return tx.WithContext(ctx).Create(ev).Error
}

func (r *GormRepository) Unpublished(ctx context.Context, tx *gorm.DB, limit int) ([]Event, error) {
	q := tx.WithContext(ctx).
		Where("published_at IS NULL AND attempts < ?", r.MaxAttempts).
		Order("created_at ASC, id ASC").
		Limit(limit)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var out []Event
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) MarkPublished(ctx context.Context, tx *gorm.DB, id uint64) error {
	now := time.Now().UTC()
	return tx.WithContext(ctx).Model(&Event{}).
		Where("id = ?", id).
		Updates(map[string]any{"published_at": now, "last_error": nil}).Error
}

func (r *GormRepository) MarkFailed(ctx context.Context, tx *gorm.DB, id uint64, msg string) error {
	return tx.WithContext(ctx).Model(&Event{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": msg,
		}).Error
}
