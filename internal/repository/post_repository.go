package repository

import (
	"context"
	"database/sql"

	"github.com/klass-lk/postboot"
	"github.com/klass-lk/postboot/internal/model"
)

type PostRepository struct {
	*postboot.SQLRepository[model.Post]
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{
		SQLRepository: postboot.NewSQLRepository[model.Post](db),
	}
}

// Create inserts a draft and returns it with its database-assigned id.
func (r *PostRepository) Create(ctx context.Context, title, body string) (model.Post, error) {
	return r.Insert(ctx, model.NewPost{Title: title, Body: body})
}

// Publish sets published on the post and returns the updated row. Publishing
// an already published post succeeds and changes nothing.
func (r *PostRepository) Publish(ctx context.Context, id int32) (model.Post, error) {
	return r.UpdateById(ctx, id, map[string]interface{}{"published": true})
}

func (r *PostRepository) FindPost(ctx context.Context, id int32) (model.Post, error) {
	return r.FindById(ctx, id)
}

// ListPublished returns at most limit published posts ordered by id.
func (r *PostRepository) ListPublished(ctx context.Context, limit int) ([]model.Post, error) {
	return r.FindBy(ctx,
		map[string]interface{}{"published": true},
		postboot.PageRequest{
			Page: 1,
			Size: limit,
			Sort: postboot.SortField{Field: "id", Direction: postboot.Ascending},
		},
	)
}

// DeleteByTitleLike deletes every post whose title matches the LIKE pattern.
func (r *PostRepository) DeleteByTitleLike(ctx context.Context, pattern string) (int64, error) {
	return r.DeleteWhereLike(ctx, "title", pattern)
}
