package studio

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type mockMounter struct {
	mock.Mock
}

func (m *mockMounter) Mount(ctx context.Context, source string) {
	m.Called(ctx, source)
}

func (m *mockMounter) Unmount() {
	m.Called()
}
