package stores_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/stores/storetest"
)

func TestArticleCreateWithTags(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)
	author := storetest.CreateUser(t, db, "writer")
	s := stores.NewArticleStore(db)

	a := &models.Article{AuthorID: author.ID, Title: "Go tips", Content: "use gofmt"}
	require.NoError(t, s.Create(ctx, a, []string{"go", " tooling ", "go", ""}))
	assert.Equal(t, "writer", a.Author.Username)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"go", "tooling"}, got.TagNames())

	dup := &models.Article{AuthorID: author.ID, Title: "Go tips", Content: "again"}
	assert.ErrorIs(t, s.Create(ctx, dup, nil), stores.ErrTitleTaken)
}

func TestArticleUpdate(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)
	author := storetest.CreateUser(t, db, "writer")
	s := stores.NewArticleStore(db)
	storetest.CreateArticle(t, db, author, "taken")

	a := &models.Article{AuthorID: author.ID, Title: "draft", Content: "v1"}
	require.NoError(t, s.Create(ctx, a, []string{"old"}))

	a.Title = "taken"
	assert.ErrorIs(t, s.Update(ctx, a, nil), stores.ErrTitleTaken)

	a.Title = "published"
	a.Content = "v2"
	require.NoError(t, s.Update(ctx, a, []string{"new"}))
	assert.Equal(t, "published", a.Title)
	assert.Equal(t, []string{"new"}, a.TagNames())

	a.Content = "v3"
	require.NoError(t, s.Update(ctx, a, nil))
	assert.Equal(t, []string{"new"}, a.TagNames())

	missing := &models.Article{ID: 9999, Title: "ghost"}
	assert.ErrorIs(t, s.Update(ctx, missing, nil), stores.ErrNotFound)
}

func TestArticleListSearchAndTag(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)
	author := storetest.CreateUser(t, db, "writer")
	s := stores.NewArticleStore(db)

	require.NoError(t, s.Create(ctx, &models.Article{AuthorID: author.ID, Title: "Gin routing", Content: "groups"}, []string{"web"}))
	require.NoError(t, s.Create(ctx, &models.Article{AuthorID: author.ID, Title: "GORM hooks", Content: "callbacks"}, []string{"orm"}))
	require.NoError(t, s.Create(ctx, &models.Article{AuthorID: author.ID, Title: "Zap", Content: "logging"}, []string{"web", "logs"}))

	all, total, err := s.List(ctx, stores.ArticleFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 2)
	assert.Equal(t, "Zap", all[0].Title)

	byTag, total, err := s.List(ctx, stores.ArticleFilter{Tag: "web", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, byTag, 2)

	found, total, err := s.List(ctx, stores.ArticleFilter{Search: "callback", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "GORM hooks", found[0].Title)

	viaTag, _, err := s.List(ctx, stores.ArticleFilter{Search: "logs", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, viaTag, 1)
	assert.Equal(t, "Zap", viaTag[0].Title)
}
