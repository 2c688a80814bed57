package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/aiblog/mocks"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/stores"
)

func comment(id, article uint) *models.Comment {
	c := &models.Comment{ArticleID: article, Content: "parent"}
	c.ID = id
	return c
}

func reason(t *testing.T, err error) string {
	t.Helper()
	var rie *services.ReplyIntegrityError
	require.ErrorAs(t, err, &rie)
	return rie.Reason
}

func TestReplyValidatorAcceptsRoot(t *testing.T) {
	store := new(mocks.CommentStore)
	v := services.ReplyValidator{Comments: store}

	for _, blank := range []any{nil, "", "   "} {
		assert.NoError(t, v.Validate(context.Background(), 5, blank))
	}
	store.AssertNotCalled(t, "Get")
}

func TestReplyValidatorSameArticle(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.CommentStore)
	store.On("Get", ctx, uint(10)).Return(comment(10, 5), nil)
	v := services.ReplyValidator{Comments: store}

	assert.NoError(t, v.Validate(ctx, 5, 10))
	assert.NoError(t, v.Validate(ctx, "5", "10"))
	assert.NoError(t, v.Validate(ctx, float64(5), float64(10)))
}

func TestReplyValidatorOtherArticle(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.CommentStore)
	store.On("Get", ctx, uint(10)).Return(comment(10, 5), nil)
	v := services.ReplyValidator{Comments: store}

	assert.Equal(t, services.ReasonReplyOtherTopic, reason(t, v.Validate(ctx, 6, 10)))
	assert.Equal(t, services.ReasonReplyOtherTopic, reason(t, v.Validate(ctx, "abc", 10)))
	assert.Equal(t, services.ReasonReplyOtherTopic, reason(t, v.Validate(ctx, nil, 10)))
}

func TestReplyValidatorMissingParent(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.CommentStore)
	store.On("Get", ctx, uint(404)).Return(nil, stores.ErrNotFound)
	v := services.ReplyValidator{Comments: store}

	assert.Equal(t, services.ReasonReplyNotFound, reason(t, v.Validate(ctx, 5, 404)))
	assert.Equal(t, services.ReasonReplyNotFound, reason(t, v.Validate(ctx, 5, "not-an-id")))
}

func TestReplyValidatorStoreFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	store := new(mocks.CommentStore)
	store.On("Get", ctx, uint(10)).Return(nil, boom)
	v := services.ReplyValidator{Comments: store}

	err := v.Validate(ctx, 5, 10)
	assert.ErrorIs(t, err, boom)
	var rie *services.ReplyIntegrityError
	assert.False(t, errors.As(err, &rie))
}
