package docker

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockEngine is a testify mock of Engine.
type MockEngine struct {
	mock.Mock
}

var _ Engine = (*MockEngine)(nil)

// NewMockEngine creates a MockEngine whose expectations are asserted on test cleanup.
func NewMockEngine(t interface {
	mock.TestingT
	Cleanup(fn func())
},
) *MockEngine {
	m := &MockEngine{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Ping implements Engine.
func (m *MockEngine) Ping(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// BuildImage implements Engine.
func (m *MockEngine) BuildImage(
	ctx context.Context,
	buildContext io.Reader,
	opts BuildOptions,
) (io.ReadCloser, error) {
	args := m.Called(ctx, buildContext, opts)

	reader, _ := args.Get(0).(io.ReadCloser)

	return reader, args.Error(1)
}

// SaveImages implements Engine.
func (m *MockEngine) SaveImages(ctx context.Context, refs []string) (io.ReadCloser, error) {
	args := m.Called(ctx, refs)

	reader, _ := args.Get(0).(io.ReadCloser)

	return reader, args.Error(1)
}

// ListContainers implements Engine.
func (m *MockEngine) ListContainers(ctx context.Context, labels ...string) ([]Container, error) {
	args := m.Called(ctx, labels)

	containers, _ := args.Get(0).([]Container)

	return containers, args.Error(1)
}

// CopyToContainer implements Engine.
func (m *MockEngine) CopyToContainer(
	ctx context.Context,
	containerID, dstDir string,
	content io.Reader,
) error {
	args := m.Called(ctx, containerID, dstDir, content)

	return args.Error(0)
}

// Exec implements Engine.
func (m *MockEngine) Exec(ctx context.Context, containerID string, cmd []string) (string, error) {
	args := m.Called(ctx, containerID, cmd)

	return args.String(0), args.Error(1)
}

// Close implements Engine.
func (m *MockEngine) Close() error {
	args := m.Called()

	return args.Error(0)
}
