package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blob struct{ id int }

func TestRetireRingBasic(t *testing.T) {
	r, err := NewRetireRing(4)
	require.NoError(t, err)
	o1, o2 := &blob{1}, &blob{2}

	require.True(t, r.Enqueue(o1, 1))
	require.True(t, r.Enqueue(o2, 2))
	assert.Equal(t, 2, r.Len())

	v, epoch, ok := r.Peek()
	require.True(t, ok)
	assert.Same(t, o1, v)
	assert.Equal(t, uint64(1), epoch)

	assert.Same(t, o1, r.Dequeue())
	assert.Same(t, o2, r.Dequeue())
	assert.Nil(t, r.Dequeue())
	_, _, ok = r.Peek()
	assert.False(t, ok)
}

func TestRetireRingFull(t *testing.T) {
	r, err := NewRetireRing(2)
	require.NoError(t, err)
	require.True(t, r.Enqueue(&blob{1}, 1))
	require.True(t, r.Enqueue(&blob{2}, 1))
	assert.False(t, r.Enqueue(&blob{3}, 1))

	r.Dequeue()
	assert.True(t, r.Enqueue(&blob{3}, 1), "slot freed by dequeue is reused")
	assert.Equal(t, r.Cap(), r.Len())
}

func TestRetireRingRejectsBadSize(t *testing.T) {
	for _, n := range []uint64{0, 3, 100} {
		_, err := NewRetireRing(n)
		assert.Error(t, err, "size %d", n)
	}
}
