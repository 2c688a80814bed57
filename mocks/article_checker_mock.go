package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ArticleChecker struct{ mock.Mock }

func (m *ArticleChecker) Exists(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
