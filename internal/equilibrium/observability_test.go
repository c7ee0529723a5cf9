package equilibrium

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type spyProfileEvalObserver struct {
	mu      sync.Mutex
	records []int
}

func (s *spyProfileEvalObserver) ObserveProfileEval(subgameSize int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, subgameSize)
}

func (s *spyProfileEvalObserver) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestAsyncProfileEvalObserver_DeliversEventsOnClose(t *testing.T) {
	spy := &spyProfileEvalObserver{}
	async := NewAsyncProfileEvalObserver(spy, 8)

	async.ObserveProfileEval(1, 1*time.Millisecond)
	async.ObserveProfileEval(2, 2*time.Millisecond)
	async.Close()

	if got := spy.Count(); got != 2 {
		t.Fatalf("expected 2 delivered events, got %d", got)
	}
}

func TestAsyncProfileEvalObserver_DropsWhenBufferIsFull(t *testing.T) {
	spy := &spyProfileEvalObserver{}
	async := NewAsyncProfileEvalObserver(spy, 1)

	for i := 0; i < 1000; i++ {
		async.ObserveProfileEval(1, time.Microsecond)
	}
	async.Close()

	if async.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0")
	}
}

func TestAsyncProfileEvalObserver_CloseDuringConcurrentObserveDoesNotPanic(t *testing.T) {
	spy := &spyProfileEvalObserver{}
	async := NewAsyncProfileEvalObserver(spy, 32)

	const workers = 8
	const perWorker = 200
	var wg sync.WaitGroup
	var panics atomic.Int32

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if recover() != nil {
					panics.Add(1)
				}
			}()
			for j := 0; j < perWorker; j++ {
				async.ObserveProfileEval(1, time.Microsecond)
			}
		}()
	}

	time.Sleep(1 * time.Millisecond)
	async.Close()
	wg.Wait()

	if panics.Load() != 0 {
		t.Fatalf("expected no panics, got %d", panics.Load())
	}
}

func TestSearcher_ReportsEvaluationsToObserver(t *testing.T) {
	spy := &spyProfileEvalObserver{}
	s := NewSearcher(WithObserver(spy))
	s.observe(3, time.Millisecond)
	if spy.Count() != 1 {
		t.Fatalf("expected the searcher to forward observations")
	}

	// A searcher without an observer must not panic.
	NewSearcher().observe(3, time.Millisecond)
}
