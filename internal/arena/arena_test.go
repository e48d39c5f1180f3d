package arena

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocAndGet(t *testing.T) {
	var a Arena[string]
	i := a.Alloc("first")
	j := a.Alloc("second")

	assert.False(t, i.IsNone())
	assert.NotEqual(t, i, j)
	assert.Equal(t, "first", a.Get(i))
	assert.Equal(t, "second", a.Get(j))
	assert.Equal(t, 2, a.Len())
}

func TestIdxZeroValueIsNone(t *testing.T) {
	var i Idx[int]
	assert.True(t, i.IsNone())
	assert.True(t, NoneIdx[int]().IsNone())
}

func TestArenaEachInOrder(t *testing.T) {
	var a Arena[int]
	for v := 0; v < 5; v++ {
		a.Alloc(v * 10)
	}
	var got []int
	a.Each(func(_ Idx[int], v *int) { got = append(got, *v) })
	assert.Equal(t, []int{0, 10, 20, 30, 40}, got)
}

func TestConcurrentArenaStablePointers(t *testing.T) {
	var a Concurrent[int]
	first := a.Alloc(42)
	p := a.At(first)

	// Push past several chunk boundaries; the early pointer must not
	// move.
	for i := 0; i < chunkSize*4; i++ {
		a.Alloc(i)
	}
	assert.Same(t, p, a.At(first))
	assert.Equal(t, 42, *p)
}

func TestConcurrentArenaParallelAppend(t *testing.T) {
	var a Concurrent[int]
	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				a.Alloc(i)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, workers*perWorker, a.Len())
}
