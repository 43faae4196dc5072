package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SketchBox/internal/sketch/surface"
)

func TestNewValidatesSize(t *testing.T) {
	_, err := New(0, 100)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = New(MaxDimension+1, 100)
	assert.ErrorIs(t, err, ErrInvalidSize)

	c, err := New(100, 50)
	require.NoError(t, err)
	w, h := c.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestAttachDetach(t *testing.T) {
	c, err := New(10, 10)
	require.NoError(t, err)

	a, _ := surface.New(10, 10)
	b, _ := surface.New(10, 10)

	c.Attach(a)
	c.Attach(a)
	c.Attach(b)
	assert.Len(t, c.Surfaces(), 2)

	assert.True(t, c.Detach(a))
	assert.False(t, c.Detach(a))
	assert.Equal(t, []*surface.Surface{b}, c.Surfaces())

	c.Clear()
	assert.Empty(t, c.Surfaces())
}

func TestResizeNotifiesObservers(t *testing.T) {
	c, err := New(10, 10)
	require.NoError(t, err)

	var got [][2]int
	unsubscribe := c.OnResize(func(w, h int) {
		got = append(got, [2]int{w, h})
	})

	require.NoError(t, c.Resize(30, 20))
	require.NoError(t, c.Resize(40, 25))
	assert.Equal(t, [][2]int{{30, 20}, {40, 25}}, got)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, c.Observers())

	require.NoError(t, c.Resize(50, 50))
	assert.Len(t, got, 2)

	w, h := c.Size()
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)
}

func TestResizeRejectsInvalidSize(t *testing.T) {
	c, err := New(10, 10)
	require.NoError(t, err)

	called := false
	c.OnResize(func(int, int) { called = true })

	assert.ErrorIs(t, c.Resize(-1, 10), ErrInvalidSize)
	assert.ErrorIs(t, c.Resize(10, MaxDimension+1), ErrInvalidSize)
	assert.False(t, called)

	w, h := c.Size()
	assert.Equal(t, 10, w)
	assert.Equal(t, 10, h)
}

func TestObserverMayReadSize(t *testing.T) {
	c, err := New(10, 10)
	require.NoError(t, err)

	var seen [2]int
	c.OnResize(func(int, int) {
		w, h := c.Size()
		seen = [2]int{w, h}
	})

	require.NoError(t, c.Resize(12, 14))
	assert.Equal(t, [2]int{12, 14}, seen)
}
