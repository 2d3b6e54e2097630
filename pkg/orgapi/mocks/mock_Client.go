// Package mocks provides test doubles for the orgapi client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/healthmap/internal/model"
	orgapi "github.com/sells-group/healthmap/pkg/orgapi"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// FetchSheet provides a mock function with given fields: ctx, sheet
func (_m *MockClient) FetchSheet(ctx context.Context, sheet string) (*orgapi.SheetResponse, error) {
	ret := _m.Called(ctx, sheet)

	if len(ret) == 0 {
		panic("no return value specified for FetchSheet")
	}

	var r0 *orgapi.SheetResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*orgapi.SheetResponse, error)); ok {
		return rf(ctx, sheet)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *orgapi.SheetResponse); ok {
		r0 = rf(ctx, sheet)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*orgapi.SheetResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, sheet)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Save provides a mock function with given fields: ctx, row
func (_m *MockClient) Save(ctx context.Context, row model.RawRow) (*orgapi.SaveResponse, error) {
	ret := _m.Called(ctx, row)

	if len(ret) == 0 {
		panic("no return value specified for Save")
	}

	var r0 *orgapi.SaveResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.RawRow) (*orgapi.SaveResponse, error)); ok {
		return rf(ctx, row)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.RawRow) *orgapi.SaveResponse); ok {
		r0 = rf(ctx, row)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*orgapi.SaveResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.RawRow) error); ok {
		r1 = rf(ctx, row)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Health provides a mock function with given fields: ctx
func (_m *MockClient) Health(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Health")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context) error); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockClient creates a new instance of MockClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
