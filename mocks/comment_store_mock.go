package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/stores"
)

type CommentStore struct{ mock.Mock }

func (m *CommentStore) Get(ctx context.Context, id uint) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *CommentStore) List(ctx context.Context, filter stores.CommentFilter) ([]models.Comment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *CommentStore) Create(ctx context.Context, c *models.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *CommentStore) Update(ctx context.Context, id uint, data stores.CommentUpdate) (*models.Comment, error) {
	args := m.Called(ctx, id, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *CommentStore) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}
