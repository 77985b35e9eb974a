package clip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteText("hello"))

	got, err := m.ReadText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().ReadText(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHeadless(t *testing.T) {
	var b Backend = headlessBackend{}
	_, err := b.ReadText(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, b.WriteText("x"), ErrUnavailable)
}

func TestBackendsSatisfyInterface(t *testing.T) {
	var _ Backend = NewMemory()
	var _ Backend = commandBackend{}
	var _ Backend = headlessBackend{}
}
