package publish

import (
	"sync"

	"go.uber.org/zap"
)

const queueDepth = 16

// Queue decouples the driver callback from network sinks. Enqueue never
// blocks; events are dropped when the queue is full.
type Queue struct {
	sink Sink
	log  *zap.Logger

	ch      chan Event
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	closed  bool
	dropped uint64

	closeErr error
}

func NewQueue(sink Sink, log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	q := &Queue{
		sink: sink,
		log:  log,
		ch:   make(chan Event, queueDepth),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) Enqueue(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- ev:
		return true
	default:
		q.dropped++
		q.log.Warn("publish queue full, dropping event", zap.String("type", ev.Type), zap.Uint64("dropped", q.dropped))
		return false
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *Queue) run() {
	defer close(q.done)
	for ev := range q.ch {
		if err := q.sink.Publish(ev); err != nil {
			q.log.Warn("publish failed", zap.String("type", ev.Type), zap.Error(err))
		}
	}
}

// Close drains pending events and closes the sink. Later calls return the
// first call's result.
func (q *Queue) Close() error {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
		<-q.done
		q.closeErr = q.sink.Close()
	})
	return q.closeErr
}
