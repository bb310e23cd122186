package runner

import (
	"context"
	"fmt"
	"sync"

	"cloudeng.io/errors"

	"jalaliflow/internal/model"
)

// ErrNoHandler is returned when an action names a handler that was never
// registered.
var ErrNoHandler = errors.New("runner: no handler for action")

// HandlerFunc runs an invocation action. args are the stored invocation
// arguments.
type HandlerFunc func(ctx context.Context, ev model.RecurringEvent, args []string) error

// InlineFunc runs an inline-payload action.
type InlineFunc func(ctx context.Context, ev model.RecurringEvent, data []byte) error

// Executor resolves actions to registered handlers. Stored events can only
// reach code that was registered here.
type Executor struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	inline   InlineFunc
}

func NewExecutor() *Executor {
	return &Executor{handlers: make(map[string]HandlerFunc)}
}

func handlerKey(target, method string) string {
	return target + "." + method
}

// Register binds target.method to h, replacing any earlier binding.
func (x *Executor) Register(target, method string, h HandlerFunc) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.handlers[handlerKey(target, method)] = h
}

// HandleInline sets the handler for inline payloads.
func (x *Executor) HandleInline(h InlineFunc) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.inline = h
}

// Handlers lists the registered target.method keys.
func (x *Executor) Handlers() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, 0, len(x.handlers))
	for k := range x.handlers {
		out = append(out, k)
	}
	return out
}

// Execute runs the action of ev.
func (x *Executor) Execute(ctx context.Context, ev model.RecurringEvent) error {
	a := ev.Action
	if err := a.Validate(); err != nil {
		return err
	}
	switch a.Kind() {
	case model.KindInvocation:
		x.mu.RLock()
		h, ok := x.handlers[handlerKey(a.Invocation.Target, a.Invocation.Method)]
		x.mu.RUnlock()
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoHandler, a)
		}
		return h(ctx, ev, a.Invocation.Args)
	case model.KindInline:
		x.mu.RLock()
		h := x.inline
		x.mu.RUnlock()
		if h == nil {
			return fmt.Errorf("%w: %s", ErrNoHandler, a)
		}
		return h(ctx, ev, a.Inline.Data)
	}
	return fmt.Errorf("%w: %s", ErrNoHandler, a)
}
