package id

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnowflakeRejectsBadNode(t *testing.T) {
	_, err := NewSnowflake(-1)
	assert.ErrorIs(t, err, ErrInvalidNode)

	_, err = NewSnowflake(1024)
	assert.ErrorIs(t, err, ErrInvalidNode)

	sf, err := NewSnowflake(0)
	require.NoError(t, err)
	assert.NotNil(t, sf)
}

func TestGenerateUniqueAndOrdered(t *testing.T) {
	sf, err := NewSnowflake(1)
	require.NoError(t, err)

	const n = 10000
	prev := int64(0)
	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		v := sf.Generate()
		assert.Greater(t, v, prev, "IDs must be strictly increasing")
		assert.False(t, seen[v])
		seen[v] = true
		prev = v
	}
}

func TestGenerateConcurrent(t *testing.T) {
	sf, err := NewSnowflake(2)
	require.NoError(t, err)

	const workers = 8
	const perWorker = 1000

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, sf.Generate())
			}
			mu.Lock()
			for _, v := range local {
				assert.False(t, seen[v], "duplicate ID %d", v)
				seen[v] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}

func TestGenerateReference(t *testing.T) {
	ref := GenerateReference("pay")
	assert.True(t, strings.HasPrefix(ref, "pay_"))
	assert.Len(t, ref, len("pay_")+26) // ULID is 26 chars

	assert.NotEqual(t, ref, GenerateReference("pay"))
}

func TestDocumentNumber(t *testing.T) {
	assert.Equal(t, "JE-2025-0001", DocumentNumber("JE", 2025, 1))
	assert.Equal(t, "INV-2026-0042", DocumentNumber("INV", 2026, 42))
	assert.Equal(t, "PAY-2026-12345", DocumentNumber("PAY", 2026, 12345))
}
