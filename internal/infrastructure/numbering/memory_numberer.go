package numbering

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryDocumentNumberer issues sequential document numbers from in-process
// counters. Suitable for single-instance deployments and tests; numbers are
// not coordinated across instances.
type MemoryDocumentNumberer struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryDocumentNumberer creates an in-memory document numberer
func NewMemoryDocumentNumberer() *MemoryDocumentNumberer {
	return &MemoryDocumentNumberer{
		counters: make(map[string]int64),
	}
}

// NextNumber returns the next number for the document type.
// Format matches the Redis numberer: {docType}-{yyyymmdd}-{NNNN}.
func (n *MemoryDocumentNumberer) NextNumber(_ context.Context, docType string) (string, error) {
	day := time.Now().Format("20060102")
	key := docType + ":" + day

	n.mu.Lock()
	n.counters[key]++
	seq := n.counters[key]
	n.mu.Unlock()

	return fmt.Sprintf("%s-%s-%04d", docType, day, seq), nil
}
