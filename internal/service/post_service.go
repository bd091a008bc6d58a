package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/klass-lk/postboot/internal/model"
)

// ShowLimit caps the number of published posts returned by Show.
const ShowLimit = 5

type PostStore interface {
	Create(ctx context.Context, title, body string) (model.Post, error)
	Publish(ctx context.Context, id int32) (model.Post, error)
	ListPublished(ctx context.Context, limit int) ([]model.Post, error)
	DeleteByTitleLike(ctx context.Context, pattern string) (int64, error)
}

// MatchMode controls how a delete target is turned into a LIKE pattern.
type MatchMode int

const (
	// MatchLiteral escapes LIKE metacharacters so the target matches as plain text.
	MatchLiteral MatchMode = iota
	// MatchWildcard passes % and _ in the target through to the database.
	MatchWildcard
)

type PostService struct {
	store  PostStore
	logger *slog.Logger
}

func NewPostService(store PostStore, logger *slog.Logger) *PostService {
	return &PostService{
		store:  store,
		logger: logger.With("component", "post_service"),
	}
}

func (s *PostService) WriteDraft(ctx context.Context, title, body string) (model.Post, error) {
	post, err := s.store.Create(ctx, title, body)
	if err != nil {
		return model.Post{}, err
	}
	s.logger.Info("draft saved", "post_id", post.ID, "title", post.Title)
	return post, nil
}

func (s *PostService) Publish(ctx context.Context, id int32) (model.Post, error) {
	post, err := s.store.Publish(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	s.logger.Info("post published", "post_id", post.ID)
	return post, nil
}

// ShowPublished returns up to ShowLimit published posts in id order.
func (s *PostService) ShowPublished(ctx context.Context) ([]model.Post, error) {
	posts, err := s.store.ListPublished(ctx, ShowLimit)
	if err != nil {
		return nil, err
	}
	if len(posts) > ShowLimit {
		posts = posts[:ShowLimit]
	}
	s.logger.Debug("published posts loaded", "count", len(posts))
	return posts, nil
}

// Delete removes every post whose title contains target and returns how
// many were removed.
func (s *PostService) Delete(ctx context.Context, target string, mode MatchMode) (int64, error) {
	pattern := TitlePattern(target, mode)
	deleted, err := s.store.DeleteByTitleLike(ctx, pattern)
	if err != nil {
		return 0, err
	}
	s.logger.Info("posts deleted", "pattern", pattern, "count", deleted)
	return deleted, nil
}

// TitlePattern wraps target in % on both sides.
func TitlePattern(target string, mode MatchMode) string {
	if mode == MatchLiteral {
		target = EscapeLike(target)
	}
	return "%" + target + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE metacharacters using PostgreSQL's default
// escape character, the backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
