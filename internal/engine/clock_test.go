package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockMonotonic(t *testing.T) {
	c := NewClock()
	prev := c.Current()
	for i := 0; i < 1000; i++ {
		n := c.Next()
		assert.Greater(t, n, prev)
		prev = n
	}
}

func TestClockResume(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(41), c.Current())
	assert.Equal(t, int64(42), c.Next())
}

func TestClockConcurrentUniqueness(t *testing.T) {
	c := NewClock()
	const goroutines = 8
	const perGoroutine = 500

	var wg sync.WaitGroup
	results := make([][]int64, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				results[g] = append(results[g], c.Next())
			}
		}(g)
	}
	wg.Wait()

	seen := make(map[int64]bool, goroutines*perGoroutine)
	for _, batch := range results {
		for _, n := range batch {
			assert.False(t, seen[n], "sequence %d issued twice", n)
			seen[n] = true
		}
	}
}

func TestUUIDv7GeneratorFormat(t *testing.T) {
	g := UUIDv7Generator{}
	a := g.Generate()
	b := g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestFixedGeneratorExhaustion(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
