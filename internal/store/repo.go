// Package store holds the gorm queries behind the catalog and user handlers.
package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrConflict
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "foreign key constraint") || strings.Contains(msg, "duplicate key") {
		return ErrConflict
	}
	return err
}

// ListOptions pages a listing. Zero Limit means DefaultLimit.
type ListOptions struct {
	Limit  int
	Offset int
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

func (o ListOptions) normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Repo is a pass-through CRUD repository for one catalog table.
type Repo[T any] struct {
	db       *gorm.DB
	order    string
	preloads []string
}

// NewRepo builds a repository listing rows by order and preloading the given
// associations on reads.
func NewRepo[T any](db *gorm.DB, order string, preloads ...string) *Repo[T] {
	if order == "" {
		order = "id"
	}
	return &Repo[T]{db: db, order: order, preloads: preloads}
}

func (r *Repo[T]) read(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	return q
}

// List returns one page of rows and the total count.
func (r *Repo[T]) List(ctx context.Context, opts ListOptions) ([]T, int64, error) {
	opts = opts.normalize()
	var total int64
	if err := r.db.WithContext(ctx).Model(new(T)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]T, 0)
	err := r.read(ctx).Order(r.order).Limit(opts.Limit).Offset(opts.Offset).Find(&items).Error
	return items, total, err
}

func (r *Repo[T]) Get(ctx context.Context, id uint) (*T, error) {
	item := new(T)
	if err := r.read(ctx).First(item, id).Error; err != nil {
		return nil, translate(err)
	}
	return item, nil
}

func (r *Repo[T]) Create(ctx context.Context, item *T) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

// Update writes every column of item except created_at; associations are
// left untouched.
func (r *Repo[T]) Update(ctx context.Context, item *T) error {
	return translate(r.db.WithContext(ctx).Omit("created_at", clause.Associations).Save(item).Error)
}

func (r *Repo[T]) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
