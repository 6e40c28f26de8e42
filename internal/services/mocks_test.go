package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/landsync/internal/models"
)

// MockParcelRepository is a mock implementation of ParcelRepository for testing
type MockParcelRepository struct {
	mock.Mock
}

func (m *MockParcelRepository) FindByCode(ctx context.Context, code string) (*models.Parcel, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	parcel, ok := args.Get(0).(*models.Parcel)
	if !ok {
		return nil, args.Error(1)
	}
	return parcel, args.Error(1)
}

func (m *MockParcelRepository) Insert(ctx context.Context, p *models.Parcel) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockParcelRepository) Update(ctx context.Context, p *models.Parcel) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockParcelRepository) Rename(ctx context.Context, id int64, code string, clearIssues bool) error {
	return m.Called(ctx, id, code, clearIssues).Error(0)
}

func (m *MockParcelRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockParcelRepository) List(ctx context.Context) ([]models.Parcel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Parcel), args.Error(1)
}

func (m *MockParcelRepository) ListByLandholder(ctx context.Context, landholderID int64) ([]models.Parcel, error) {
	args := m.Called(ctx, landholderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Parcel), args.Error(1)
}

// MockLandholderRepository is a mock implementation of LandholderRepository for testing
type MockLandholderRepository struct {
	mock.Mock
}

func (m *MockLandholderRepository) FindByCode(ctx context.Context, code string) (*models.Landholder, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Landholder), args.Error(1)
}

func (m *MockLandholderRepository) FindByID(ctx context.Context, id int64) (*models.Landholder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Landholder), args.Error(1)
}

func (m *MockLandholderRepository) Insert(ctx context.Context, l *models.Landholder) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockLandholderRepository) Update(ctx context.Context, l *models.Landholder) error {
	return m.Called(ctx, l).Error(0)
}

// MockLocker is a mock implementation of lock.Locker for testing
type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	args := m.Called(ctx, name)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}
