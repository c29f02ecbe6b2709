package eventalgorithm

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Engine is the single dedicated evaluation executor shared by every
// algorithm instance bound to it: one goroutine, one serialized task
// queue, no locks in the evaluation path. golang.org/x/sync/errgroup
// supervises its lifecycle.
type Engine struct {
	tasks  chan func(context.Context)
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine starts the engine's goroutine, bound to ctx.
func NewEngine(ctx context.Context) *Engine {
	gctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(gctx)
	e := &Engine{
		tasks:  make(chan func(context.Context), 256),
		group:  g,
		ctx:    gctx,
		cancel: cancel,
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case fn := <-e.tasks:
				fn(gctx)
			}
		}
	})
	return e
}

// Submit enqueues fn to run on the engine's dedicated goroutine. Callers
// invoke Submit from a property write's monitor callback; that callback is
// already part of the single logical executor, so Submit only hands the
// continuation to the same serialized queue.
func (e *Engine) Submit(fn func(context.Context)) {
	select {
	case e.tasks <- fn:
	case <-e.ctx.Done():
	}
}

// Shutdown cancels the engine and waits for its goroutine to exit.
func (e *Engine) Shutdown() error {
	e.cancel()
	return e.group.Wait()
}

// schedulerState holds one instance's coalescing state: the pending
// change set, the scheduled flag, and the re-entrancy guard that keeps the
// evaluator's own property writes from re-enqueueing it.
type schedulerState struct {
	mu             sync.Mutex
	executeEnabled bool
	scheduled      bool
	whatChanged    map[string]struct{}
}

func newSchedulerState() *schedulerState {
	return &schedulerState{executeEnabled: true, whatChanged: make(map[string]struct{})}
}

// noteChange records a changed binding name and reports whether the caller
// must enqueue a continuation. It returns true exactly once per scheduling
// quantum — on the first change that arrives while nothing is already
// scheduled — so N simultaneous changes fold into one evaluation.
//
// The name is recorded even while executeEnabled is false: a write landing
// mid-evaluation (the evaluator's own, or an external writer such as a
// remote poller) must not be lost, only its re-schedule deferred until
// endExecute reopens the window.
func (s *schedulerState) noteChange(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whatChanged[name] = struct{}{}
	if !s.executeEnabled || s.scheduled {
		return false
	}
	s.scheduled = true
	return true
}

// beginExecute snapshots and clears the pending change set and disables
// further scheduling for the duration of the evaluator body.
func (s *schedulerState) beginExecute() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.whatChanged
	s.whatChanged = make(map[string]struct{})
	s.scheduled = false
	s.executeEnabled = false
	return snapshot
}

// endExecute restores the enabled flag and reports whether changes arrived
// during the execute window, in which case the caller must enqueue one
// further continuation to evaluate them. Callers must invoke this on every
// exit path of the evaluator body, including error paths; Base.runScheduled
// does so via defer.
func (s *schedulerState) endExecute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executeEnabled = true
	if len(s.whatChanged) == 0 || s.scheduled {
		return false
	}
	s.scheduled = true
	return true
}
