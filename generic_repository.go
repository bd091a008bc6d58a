package postboot

import "context"

type GenericRepository[T Document] interface {
	Insert(ctx context.Context, values interface{}) (T, error)
	FindById(ctx context.Context, id interface{}) (T, error)
	UpdateById(ctx context.Context, id interface{}, changes map[string]interface{}) (T, error)
	FindBy(ctx context.Context, filters map[string]interface{}, pageRequest PageRequest) ([]T, error)
	FindAll(ctx context.Context) ([]T, error)
	DeleteWhereLike(ctx context.Context, field, pattern string) (int64, error)
	CountBy(ctx context.Context, field string, value interface{}) (int64, error)
	ExistsBy(ctx context.Context, field string, value interface{}) (bool, error)
}
