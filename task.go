package grove

import (
	"context"
	"log/slog"
)

// Step is one stage of a Task. Advance is called once per tick while the
// step is current and reports whether it has finished. When a step finishes,
// the next one starts in the same tick with a zero delta.
//
// A step may also implement Begin(*Task) error, called before its first
// Advance, and Release(), called when it finishes or its task is cancelled.
// Steps hold per-run state and must not be shared between tasks.
type Step interface {
	Advance(dt float64) bool
}

type stepBeginner interface {
	Begin(t *Task) error
}

type stepReleaser interface {
	Release()
}

// Task is a sequence of steps run by a Scheduler, one tick at a time.
type Task struct {
	sched *Scheduler
	ctx   context.Context
	steps []Step
	cur   int
	begun bool
	done  bool
	err   error

	// OnDone, if set, is called once when the task finishes, with the error
	// that ended it (nil on normal completion).
	OnDone func(err error)
}

// Done reports whether the task has finished, failed, or been cancelled.
func (t *Task) Done() bool {
	return t.done
}

// Err returns the error that ended the task: nil on completion,
// context.Canceled on Cancel, ctx.Err() when its context ends, or the error
// returned by a step's Begin.
func (t *Task) Err() error {
	return t.err
}

// Scheduler returns the scheduler running the task.
func (t *Task) Scheduler() *Scheduler {
	return t.sched
}

// Context returns the task's context.
func (t *Task) Context() context.Context {
	return t.ctx
}

// Cancel stops the task. The current step is released.
func (t *Task) Cancel() {
	t.finish(context.Canceled)
}

func (t *Task) finish(err error) {
	if t.done {
		return
	}
	if t.begun && t.cur < len(t.steps) {
		if r, ok := t.steps[t.cur].(stepReleaser); ok {
			r.Release()
		}
	}
	t.begun = false
	t.done = true
	t.err = err
	if t.OnDone != nil {
		t.OnDone(err)
	}
}

// run advances the task by dt, moving through as many steps as finish.
func (t *Task) run(dt float64) {
	for !t.done {
		if err := t.ctx.Err(); err != nil {
			t.finish(err)
			return
		}
		if t.cur >= len(t.steps) {
			t.finish(nil)
			return
		}
		s := t.steps[t.cur]
		if !t.begun {
			t.begun = true
			if b, ok := s.(stepBeginner); ok {
				if err := b.Begin(t); err != nil {
					t.finish(err)
					return
				}
			}
		}
		if !s.Advance(dt) {
			return
		}
		if t.done {
			// The step cancelled its own task.
			return
		}
		if r, ok := s.(stepReleaser); ok {
			r.Release()
		}
		t.begun = false
		t.cur++
		dt = 0
	}
}

// Scheduler runs Tasks. A Tree advances its scheduler once per Tick, after
// the update pass; a standalone scheduler is advanced by calling Advance.
type Scheduler struct {
	tree  *Tree
	tasks []*Task
	frame uint64
}

// NewScheduler creates a scheduler not bound to any tree.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func newScheduler(t *Tree) *Scheduler {
	return &Scheduler{tree: t}
}

// Start runs steps in order, beginning on the next Advance.
func (s *Scheduler) Start(steps ...Step) *Task {
	return s.StartContext(context.Background(), steps...)
}

// StartContext is Start with a cancellation context. The task ends with
// ctx.Err() at the first Advance after ctx is done.
func (s *Scheduler) StartContext(ctx context.Context, steps ...Step) *Task {
	t := &Task{sched: s, ctx: ctx, steps: steps}
	if s.tree != nil && s.tree.disposed {
		t.finish(ErrNotLive)
		return t
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Len returns the number of unfinished tasks.
func (s *Scheduler) Len() int {
	n := 0
	for _, t := range s.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// Frame returns how many times the scheduler has been advanced.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Advance runs every task by dt. Tasks started during Advance first run on
// the next call.
func (s *Scheduler) Advance(dt float64) {
	s.frame++
	n := len(s.tasks)
	for i := 0; i < n && i < len(s.tasks); i++ {
		s.tasks[i].run(dt)
	}
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.done {
			kept = append(kept, t)
		}
	}
	clear(s.tasks[len(kept):])
	s.tasks = kept
}

// cancelAll cancels every pending task.
func (s *Scheduler) cancelAll() {
	tasks := s.tasks
	s.tasks = nil
	for _, t := range tasks {
		t.Cancel()
	}
	if len(tasks) > 0 {
		Logger().Debug("grove: tasks cancelled", slog.Int("count", len(tasks)))
	}
}

// --- Steps ---

// StepFunc adapts a function to a Step.
type StepFunc func(dt float64) bool

// Advance implements Step.
func (f StepFunc) Advance(dt float64) bool { return f(dt) }

// Do returns a step that calls fn once and finishes.
func Do(fn func()) Step {
	return StepFunc(func(float64) bool {
		fn()
		return true
	})
}

type waitStep struct {
	duration float64
	elapsed  float64
}

// Wait returns a step that finishes once seconds of tick time have elapsed.
func Wait(seconds float64) Step {
	return &waitStep{duration: seconds}
}

func (w *waitStep) Advance(dt float64) bool {
	w.elapsed += dt
	return w.elapsed >= w.duration
}

type waitFramesStep struct {
	frames int
	start  uint64
	sched  *Scheduler
}

// WaitFrames returns a step that finishes on the n-th scheduler advance
// after it begins. WaitFrames(0) finishes immediately.
func WaitFrames(n int) Step {
	return &waitFramesStep{frames: n}
}

func (w *waitFramesStep) Begin(t *Task) error {
	w.sched = t.sched
	w.start = t.sched.frame
	return nil
}

func (w *waitFramesStep) Advance(float64) bool {
	return w.sched.frame-w.start >= uint64(w.frames)
}

// MessageStep waits for a message to reach a node. The listener is
// registered when the step begins and removed when it ends.
type MessageStep struct {
	node     *Node
	pattern  string
	l        *Listener
	received bool
	msg      Message
}

// WaitMessage returns a step that finishes after node receives a message
// matching pattern ("name" or "name@mask", as for Node.On).
func WaitMessage(node *Node, pattern string) *MessageStep {
	return &MessageStep{node: node, pattern: pattern}
}

// Begin implements the optional Step hook.
func (m *MessageStep) Begin(*Task) error {
	m.received = false
	m.l = NewListener(func(msg Message) {
		if !m.received {
			m.received = true
			m.msg = msg
		}
	}, m)
	return m.node.Listen(m.pattern, m.l)
}

// Advance implements Step.
func (m *MessageStep) Advance(float64) bool {
	return m.received
}

// Release implements the optional Step hook.
func (m *MessageStep) Release() {
	if m.l != nil {
		m.node.Off(m.pattern, m.l)
		m.l = nil
	}
}

// Message returns the message that completed the step.
func (m *MessageStep) Message() (Message, bool) {
	return m.msg, m.received
}
