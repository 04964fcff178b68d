package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"taxrecon/internal/service"
)

// MockReconcileService is a mock implementation of service.ReconcileService.
type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) Run(ctx context.Context, input service.ReconcileInput) (*service.ReconcileResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileResult), args.Error(1)
}
