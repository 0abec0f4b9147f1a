package queue

import (
	"context"
	"sync"
)

// MockQueue is an in-memory ports.Queue for tests.
type MockQueue struct {
	mu        sync.Mutex
	Envelopes [][]byte
}

// NewMockQueue constructs an empty MockQueue.
func NewMockQueue() *MockQueue {
	return &MockQueue{}
}

func (q *MockQueue) Enqueue(_ context.Context, envelope []byte) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Envelopes = append(q.Envelopes, append([]byte(nil), envelope...))
	return true, nil
}
