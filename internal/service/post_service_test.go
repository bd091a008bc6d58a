package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/postboot"
	"github.com/klass-lk/postboot/internal/model"
)

type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) Create(ctx context.Context, title, body string) (model.Post, error) {
	args := m.Called(ctx, title, body)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) Publish(ctx context.Context, id int32) (model.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) ListPublished(ctx context.Context, limit int) ([]model.Post, error) {
	args := m.Called(ctx, limit)
	posts, _ := args.Get(0).([]model.Post)
	return posts, args.Error(1)
}

func (m *MockPostStore) DeleteByTitleLike(ctx context.Context, pattern string) (int64, error) {
	args := m.Called(ctx, pattern)
	return args.Get(0).(int64), args.Error(1)
}

func newService(store PostStore) *PostService {
	return NewPostService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPostService_WriteDraft(t *testing.T) {
	store := new(MockPostStore)
	ctx := context.Background()
	want := model.Post{ID: 3, Title: "Title", Body: "Body\n"}
	store.On("Create", ctx, "Title", "Body\n").Return(want, nil)

	got, err := newService(store).WriteDraft(ctx, "Title", "Body\n")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	store.AssertExpectations(t)
}

func TestPostService_WriteDraftError(t *testing.T) {
	store := new(MockPostStore)
	ctx := context.Background()
	store.On("Create", ctx, "t", "b").Return(model.Post{}, postboot.ErrConnectionFailed.New("refused"))

	_, err := newService(store).WriteDraft(ctx, "t", "b")
	assert.True(t, errors.Is(err, postboot.ErrConnectionFailed))
}

func TestPostService_Publish(t *testing.T) {
	store := new(MockPostStore)
	ctx := context.Background()
	store.On("Publish", ctx, int32(7)).Return(model.Post{ID: 7, Published: true}, nil)
	store.On("Publish", ctx, int32(9999)).Return(model.Post{}, postboot.ErrNotFound.New("posts with id 9999"))

	svc := newService(store)

	post, err := svc.Publish(ctx, 7)
	require.NoError(t, err)
	assert.True(t, post.Published)

	_, err = svc.Publish(ctx, 9999)
	assert.True(t, errors.Is(err, postboot.ErrNotFound))
	store.AssertExpectations(t)
}

func TestPostService_ShowPublishedRequestsLimit(t *testing.T) {
	store := new(MockPostStore)
	ctx := context.Background()
	posts := []model.Post{{ID: 1, Published: true}, {ID: 4, Published: true}}
	store.On("ListPublished", ctx, ShowLimit).Return(posts, nil)

	got, err := newService(store).ShowPublished(ctx)
	require.NoError(t, err)
	assert.Equal(t, posts, got)
	store.AssertExpectations(t)
}

func TestPostService_ShowPublishedTruncates(t *testing.T) {
	store := new(MockPostStore)
	ctx := context.Background()
	posts := make([]model.Post, 8)
	for i := range posts {
		posts[i] = model.Post{ID: int32(i + 1), Published: true}
	}
	store.On("ListPublished", ctx, ShowLimit).Return(posts, nil)

	got, err := newService(store).ShowPublished(ctx)
	require.NoError(t, err)
	assert.Len(t, got, ShowLimit)
	assert.Equal(t, int32(5), got[4].ID)
}

func TestPostService_ShowPublishedError(t *testing.T) {
	store := new(MockPostStore)
	ctx := context.Background()
	store.On("ListPublished", ctx, ShowLimit).Return(nil, postboot.ErrQueryFailed.New("boom"))

	got, err := newService(store).ShowPublished(ctx)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, postboot.ErrQueryFailed))
}

func TestPostService_Delete(t *testing.T) {
	store := new(MockPostStore)
	ctx := context.Background()
	store.On("DeleteByTitleLike", ctx, `%50\% off%`).Return(int64(2), nil)
	store.On("DeleteByTitleLike", ctx, "%50% off%").Return(int64(3), nil)

	svc := newService(store)

	deleted, err := svc.Delete(ctx, "50% off", MatchLiteral)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = svc.Delete(ctx, "50% off", MatchWildcard)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	store.AssertExpectations(t)
}

func TestPostService_DeleteError(t *testing.T) {
	store := new(MockPostStore)
	ctx := context.Background()
	store.On("DeleteByTitleLike", ctx, "%x%").Return(int64(0), postboot.ErrConnectionFailed.New("gone"))

	deleted, err := newService(store).Delete(ctx, "x", MatchLiteral)
	assert.Equal(t, int64(0), deleted)
	assert.True(t, errors.Is(err, postboot.ErrConnectionFailed))
}

func TestTitlePattern(t *testing.T) {
	tests := []struct {
		target string
		mode   MatchMode
		want   string
	}{
		{"hello", MatchLiteral, "%hello%"},
		{"", MatchLiteral, "%%"},
		{"100%", MatchLiteral, `%100\%%`},
		{"snake_case", MatchLiteral, `%snake\_case%`},
		{`back\slash`, MatchLiteral, `%back\\slash%`},
		{"a%b_c", MatchWildcard, "%a%b_c%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TitlePattern(tt.target, tt.mode), "target %q", tt.target)
	}
}
