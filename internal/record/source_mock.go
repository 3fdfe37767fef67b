// Mocks for the Source and Sink interfaces in service.go, in the shape
// mockgen -source=service.go -destination=source_mock.go -package=record
// produces.

package record

import (
	context "context"
	reflect "reflect"

	invoicing "github.com/MrJamesThe3rd/fiore/internal/invoicing"
	gomock "go.uber.org/mock/gomock"
)

// MockSource is a mock of Source interface.
type MockSource struct {
	ctrl     *gomock.Controller
	recorder *MockSourceMockRecorder
	isgomock struct{}
}

// MockSourceMockRecorder is the mock recorder for MockSource.
type MockSourceMockRecorder struct {
	mock *MockSource
}

// NewMockSource creates a new mock instance.
func NewMockSource(ctrl *gomock.Controller) *MockSource {
	mock := &MockSource{ctrl: ctrl}
	mock.recorder = &MockSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSource) EXPECT() *MockSourceMockRecorder {
	return m.recorder
}

// Do mocks base method.
func (m *MockSource) Do(ctx context.Context, req invoicing.Request) (*invoicing.Response, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Do", ctx, req)
	ret0, _ := ret[0].(*invoicing.Response)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Do indicates an expected call of Do.
func (mr *MockSourceMockRecorder) Do(ctx, req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Do", reflect.TypeOf((*MockSource)(nil).Do), ctx, req)
}

// MockSink is a mock of Sink interface.
type MockSink struct {
	ctrl     *gomock.Controller
	recorder *MockSinkMockRecorder
	isgomock struct{}
}

// MockSinkMockRecorder is the mock recorder for MockSink.
type MockSinkMockRecorder struct {
	mock *MockSink
}

// NewMockSink creates a new mock instance.
func NewMockSink(ctrl *gomock.Controller) *MockSink {
	mock := &MockSink{ctrl: ctrl}
	mock.recorder = &MockSinkMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSink) EXPECT() *MockSinkMockRecorder {
	return m.recorder
}

// SetData mocks base method.
func (m *MockSink) SetData(records []Record) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SetData", records)
}

// SetData indicates an expected call of SetData.
func (mr *MockSinkMockRecorder) SetData(records any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetData", reflect.TypeOf((*MockSink)(nil).SetData), records)
}

// SetError mocks base method.
func (m *MockSink) SetError(err error) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SetError", err)
}

// SetError indicates an expected call of SetError.
func (mr *MockSinkMockRecorder) SetError(err any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetError", reflect.TypeOf((*MockSink)(nil).SetError), err)
}

// SetLoading mocks base method.
func (m *MockSink) SetLoading(loading bool) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SetLoading", loading)
}

// SetLoading indicates an expected call of SetLoading.
func (mr *MockSinkMockRecorder) SetLoading(loading any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetLoading", reflect.TypeOf((*MockSink)(nil).SetLoading), loading)
}
