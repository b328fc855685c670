package native

import (
	"log"
	"sync"
)

// Looper runs posted tasks one at a time on a single goroutine. Adapters use
// it as the host's main thread: UI work and WebView script evaluation both
// happen here.
type Looper struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	done   chan struct{}
}

// NewLooper starts a looper.
func NewLooper() *Looper {
	l := &Looper{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go l.loop()
	return l
}

// Post queues fn. It returns false once the looper is closed.
func (l *Looper) Post(fn func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	l.tasks <- fn
	return true
}

// Close stops accepting tasks and waits for queued ones to finish.
func (l *Looper) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.tasks)
	}
	l.mu.Unlock()
	<-l.done
}

func (l *Looper) loop() {
	defer close(l.done)
	for fn := range l.tasks {
		l.run(fn)
	}
}

func (l *Looper) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Looper] task panicked: %v", r)
		}
	}()
	fn()
}
