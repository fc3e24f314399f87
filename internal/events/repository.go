package events

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles event persistence
type Repository interface {
	List(ctx context.Context) ([]Event, error)
	Search(ctx context.Context, term string) ([]Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Create(ctx context.Context, e *Event) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new events repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) List(ctx context.Context) ([]Event, error) {
	var list []Event
	err := r.db.WithContext(ctx).Order("date DESC NULLS LAST").Find(&list).Error
	return list, err
}

func (r *gormRepository) Search(ctx context.Context, term string) ([]Event, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	var list []Event
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(congregation_name) LIKE ? OR LOWER(category) LIKE ?",
			pattern, pattern, pattern).
		Order("date DESC NULLS LAST").
		Find(&list).Error
	return list, err
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var e Event
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *gormRepository) Create(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *gormRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&Event{}, "id IN ?", ids)
	return res.RowsAffected, res.Error
}
