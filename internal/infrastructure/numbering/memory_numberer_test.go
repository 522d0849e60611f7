package numbering

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDocumentNumberer_NextNumber(t *testing.T) {
	t.Run("issues sequential numbers per document type", func(t *testing.T) {
		numberer := NewMemoryDocumentNumberer()
		ctx := context.Background()
		day := time.Now().Format("20060102")

		first, err := numberer.NextNumber(ctx, "PK")
		require.NoError(t, err)
		second, err := numberer.NextNumber(ctx, "PK")
		require.NoError(t, err)
		other, err := numberer.NextNumber(ctx, "SH")
		require.NoError(t, err)

		assert.Equal(t, fmt.Sprintf("PK-%s-0001", day), first)
		assert.Equal(t, fmt.Sprintf("PK-%s-0002", day), second)
		assert.Equal(t, fmt.Sprintf("SH-%s-0001", day), other)
	})

	t.Run("never issues duplicates under concurrent callers", func(t *testing.T) {
		numberer := NewMemoryDocumentNumberer()
		ctx := context.Background()

		const callers = 20
		var wg sync.WaitGroup
		results := make([]string, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				number, err := numberer.NextNumber(ctx, "IN")
				assert.NoError(t, err)
				results[i] = number
			}(i)
		}
		wg.Wait()

		seen := make(map[string]bool, callers)
		for _, number := range results {
			assert.False(t, seen[number], "duplicate number %s", number)
			seen[number] = true
		}
	})
}
