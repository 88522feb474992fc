// Package mocks provides test doubles for the enrichment lookup.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	models "mspro-labs/plage-watch/internal/models"
)

// MockLookup is a mock type for the Lookup interface.
type MockLookup struct {
	mock.Mock
}

// FindLink provides a mock function with given fields: ctx, query
func (_m *MockLookup) FindLink(ctx context.Context, query string) (models.LinkResult, bool) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for FindLink")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (models.LinkResult, bool)); ok {
		return rf(ctx, query)
	}
	return ret.Get(0).(models.LinkResult), ret.Bool(1)
}

// FindImage provides a mock function with given fields: ctx, query
func (_m *MockLookup) FindImage(ctx context.Context, query string) (models.ImageResult, bool) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for FindImage")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (models.ImageResult, bool)); ok {
		return rf(ctx, query)
	}
	return ret.Get(0).(models.ImageResult), ret.Bool(1)
}

// NewMockLookup creates a new instance of MockLookup.
func NewMockLookup(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLookup {
	mock := &MockLookup{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
