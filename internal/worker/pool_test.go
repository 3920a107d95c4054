package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

type chanQueue struct {
	ch chan string
}

func (q *chanQueue) Dequeue(ctx context.Context) (string, error) {
	select {
	case id := <-q.ch:
		return id, nil
	case <-time.After(20 * time.Millisecond):
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type recordingProcessor struct {
	mu   sync.Mutex
	seen map[string]int
	done chan struct{}
	want int
}

func (p *recordingProcessor) Process(ctx context.Context, documentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[documentID]++
	if len(p.seen) == p.want {
		close(p.done)
	}
	return nil
}

func TestPoolProcessesQueuedDocuments(t *testing.T) {
	queue := &chanQueue{ch: make(chan string, 10)}
	processor := &recordingProcessor{seen: make(map[string]int), done: make(chan struct{}), want: 3}

	pool := NewPool(queue, processor, 2)
	pool.Start(context.Background())
	defer pool.Stop()

	for _, id := range []string{"doc-a", "doc-b", "doc-c"} {
		queue.ch <- id
	}

	select {
	case <-processor.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for workers to process documents")
	}

	processor.mu.Lock()
	defer processor.mu.Unlock()
	for _, id := range []string{"doc-a", "doc-b", "doc-c"} {
		if processor.seen[id] != 1 {
			t.Errorf("Expected %s processed exactly once, got %d", id, processor.seen[id])
		}
	}
}

func TestPoolStopsCleanly(t *testing.T) {
	queue := &chanQueue{ch: make(chan string)}
	processor := &recordingProcessor{seen: make(map[string]int), done: make(chan struct{}), want: 1}

	pool := NewPool(queue, processor, 3)
	pool.Start(context.Background())

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Pool did not stop within timeout")
	}
}
