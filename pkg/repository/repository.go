package repository

import (
	"context"

	"github.com/smallbiznis/taskflow/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a typed gorm store shared by plain record modules.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	FindByID(ctx context.Context, id int64, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Updates(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, query *T) (int64, error)
}
