package credentials

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsEmptyPool(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrEmptyPool)

	_, err = New([]string{"", "   "})
	require.ErrorIs(t, err, ErrEmptyPool)
}

func TestNew_TrimsKeys(t *testing.T) {
	pool, err := New([]string{" first ", "", "second"})
	require.NoError(t, err)

	assert.Equal(t, 2, pool.Size())
	assert.Equal(t, "first", pool.Key(0))
	assert.Equal(t, "second", pool.Key(1))
}

func TestKey_Wraps(t *testing.T) {
	pool, err := New([]string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, "a", pool.Key(3))
	assert.Equal(t, "c", pool.Key(5))
	assert.Equal(t, "c", pool.Key(-1))
}

func TestAdvance(t *testing.T) {
	pool, err := New([]string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, 0, pool.Current())
	assert.Equal(t, 1, pool.Advance(0))
	assert.Equal(t, 1, pool.Current())
	assert.Equal(t, 0, pool.Advance(2))
	assert.Equal(t, 0, pool.Current())
}

func TestAdvance_Concurrent(t *testing.T) {
	pool, err := New([]string{"a", "b", "c", "d"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pool.Advance(i)
		}(i)
	}
	wg.Wait()

	current := pool.Current()
	assert.GreaterOrEqual(t, current, 0)
	assert.Less(t, current, pool.Size())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "1d90e...", Mask("1d90ef3fff1ffbae553730cea09ad1e8"))
	assert.Equal(t, "***", Mask("abc"))
	assert.Equal(t, "", Mask(""))
}
