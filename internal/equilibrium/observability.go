package equilibrium

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// ProfileEvalObserver receives the latency of each strategy-profile payoff
// evaluation together with the subgame size that produced it.
type ProfileEvalObserver interface {
	ObserveProfileEval(subgameSize int, duration time.Duration)
}

// ProfileEvalLogger logs evaluation latencies through a standard logger.
type ProfileEvalLogger struct {
	logger *log.Logger
}

func NewProfileEvalLogger(logger *log.Logger) *ProfileEvalLogger {
	return &ProfileEvalLogger{logger: logger}
}

func (l *ProfileEvalLogger) ObserveProfileEval(subgameSize int, duration time.Duration) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf("profile_eval_latency subgame_size=%d duration_ms=%.3f",
		subgameSize, float64(duration.Microseconds())/1000.0)
}

// AsyncProfileEvalObserver decouples observation from the search hot loop.
// Events that do not fit the buffer are dropped and counted.
type AsyncProfileEvalObserver struct {
	next    ProfileEvalObserver
	events  chan profileEvalEvent
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

type profileEvalEvent struct {
	subgameSize int
	duration    time.Duration
}

func NewAsyncProfileEvalObserver(next ProfileEvalObserver, buffer int) *AsyncProfileEvalObserver {
	if buffer <= 0 {
		buffer = 1
	}

	o := &AsyncProfileEvalObserver{
		next:   next,
		events: make(chan profileEvalEvent, buffer),
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for ev := range o.events {
			if o.next == nil {
				continue
			}
			o.next.ObserveProfileEval(ev.subgameSize, ev.duration)
		}
	}()

	return o
}

func (o *AsyncProfileEvalObserver) ObserveProfileEval(subgameSize int, duration time.Duration) {
	if o == nil {
		return
	}
	o.mu.RLock()
	if o.closed {
		o.mu.RUnlock()
		o.dropped.Add(1)
		return
	}
	select {
	case o.events <- profileEvalEvent{subgameSize: subgameSize, duration: duration}:
	default:
		o.dropped.Add(1)
	}
	o.mu.RUnlock()
}

func (o *AsyncProfileEvalObserver) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

func (o *AsyncProfileEvalObserver) Close() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.events)
		o.mu.Unlock()
		o.wg.Wait()
	})
}
