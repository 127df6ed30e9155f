package fallback

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Message is the payload handed to every handler for one capability run.
type Message struct {
	To   string
	Body string
}

// Result is a successful handler outcome, returned verbatim to the caller.
type Result struct {
	Provider  string `json:"provider"`
	MessageID string `json:"message_id,omitempty"`
}

// Handler attempts one externally-addressed side effect. Implementations
// must be idempotent from the executor's point of view: a failed attempt
// leaves no partial state the executor can observe. MaxRetries is the
// handler's own transient-error policy; the executor re-attempts the same
// handler at most that many extra times before falling through.
type Handler interface {
	Name() string
	MaxRetries() int
	Attempt(ctx context.Context, msg Message) (*Result, error)
}

// Attempt records one failed handler try, in try order.
type Attempt struct {
	Provider string `json:"provider"`
	Err      string `json:"error"`
}

// ExhaustedError is returned when every handler failed. Attempts preserves
// try order so callers can diagnose which backends were tried and why each
// failed.
type ExhaustedError struct {
	Capability string
	Attempts   []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Provider+": "+a.Err)
	}
	return fmt.Sprintf("%s: all %d providers failed (%s)",
		e.Capability, len(e.Attempts), strings.Join(parts, "; "))
}

// Executor tries an ordered list of handlers for one capability until one
// succeeds or all fail. The order encodes operator-assigned priority and is
// never reshuffled. Handlers run sequentially so at most one side effect
// can succeed per invocation; each attempt is bounded by a per-handler
// timeout so a hung backend cannot stall the sequence.
type Executor struct {
	capability string
	timeout    time.Duration
	handlers   []Handler
}

func NewExecutor(capability string, timeout time.Duration, handlers ...Handler) *Executor {
	return &Executor{capability: capability, timeout: timeout, handlers: handlers}
}

// Execute runs the handlers in order. The first success short-circuits the
// rest and its result is returned verbatim. If every handler fails the
// error is an *ExhaustedError listing each attempt.
func (e *Executor) Execute(ctx context.Context, msg Message) (*Result, error) {
	var attempts []Attempt

	for _, h := range e.handlers {
		var lastErr error
		for try := 0; try <= h.MaxRetries(); try++ {
			res, err := e.attemptOnce(ctx, h, msg)
			if err == nil {
				if len(attempts) > 0 {
					log.Printf("[fallback] %s: %s succeeded after %d failed provider(s)",
						e.capability, h.Name(), len(attempts))
				}
				return res, nil
			}
			lastErr = err
		}
		log.Printf("[fallback] %s: provider %s failed: %v", e.capability, h.Name(), lastErr)
		attempts = append(attempts, Attempt{Provider: h.Name(), Err: lastErr.Error()})
	}

	return nil, &ExhaustedError{Capability: e.capability, Attempts: attempts}
}

// attemptOnce runs a single try under the per-handler timeout, converting a
// handler panic into an ordinary failure so the sequence continues.
func (e *Executor) attemptOnce(ctx context.Context, h Handler, msg Message) (res *Result, err error) {
	hctx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	res, err = h.Attempt(hctx, msg)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("handler %s returned no result", h.Name())
	}
	return res, nil
}
