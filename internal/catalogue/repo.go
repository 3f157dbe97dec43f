package catalogue

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

const listLimit = 100

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

type Filter struct {
	Category string
	Featured bool
}

// ListActive returns active items newest first.
func (r *Repo) ListActive(ctx context.Context, f Filter) ([]Item, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Featured {
		q = q.Where("is_featured = ?", true)
	}
	items := make([]Item, 0)
	if err := q.Order("created_at DESC").Limit(listLimit).Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list items")
	}
	return items, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Item, error) {
	var it Item
	if err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "get item")
	}
	return &it, nil
}

func (r *Repo) Create(ctx context.Context, it *Item) error {
	return pkgerrors.Wrap(r.db.WithContext(ctx).Create(it).Error, "create item")
}

func (r *Repo) CreateMany(ctx context.Context, items []Item) error {
	return pkgerrors.Wrap(r.db.WithContext(ctx).Create(&items).Error, "create items")
}

// Save writes every column of an existing item.
func (r *Repo) Save(ctx context.Context, it *Item) error {
	return pkgerrors.Wrap(r.db.WithContext(ctx).Save(it).Error, "save item")
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Item{}, "id = ?", id)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete item")
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) Count(ctx context.Context, activeOnly bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&Item{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var n int64
	err := q.Count(&n).Error
	return n, pkgerrors.Wrap(err, "count items")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
