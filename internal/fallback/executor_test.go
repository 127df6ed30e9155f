package fallback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubHandler struct {
	name    string
	retries int
	err     error
	panics  bool
	blocks  bool
	calls   int
}

func (h *stubHandler) Name() string    { return h.name }
func (h *stubHandler) MaxRetries() int { return h.retries }

func (h *stubHandler) Attempt(ctx context.Context, msg Message) (*Result, error) {
	h.calls++
	if h.panics {
		panic("gateway client blew up")
	}
	if h.blocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if h.err != nil {
		return nil, h.err
	}
	return &Result{Provider: h.name, MessageID: "msg-" + h.name}, nil
}

func TestExecute_FirstSuccessShortCircuits(t *testing.T) {
	h1 := &stubHandler{name: "first"}
	h2 := &stubHandler{name: "second"}
	h3 := &stubHandler{name: "third"}

	ex := NewExecutor("sms", time.Second, h1, h2, h3)
	res, err := ex.Execute(context.Background(), Message{To: "+22501020304", Body: "hi"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Provider != "first" || res.MessageID != "msg-first" {
		t.Errorf("Execute() = %+v, want first handler's result verbatim", res)
	}
	if h2.calls != 0 || h3.calls != 0 {
		t.Errorf("later handlers invoked: second=%d third=%d, want 0", h2.calls, h3.calls)
	}
}

func TestExecute_FallsBackInOrder(t *testing.T) {
	h1 := &stubHandler{name: "first", err: errors.New("credit exhausted")}
	h2 := &stubHandler{name: "second", err: errors.New("route down")}
	h3 := &stubHandler{name: "third"}

	ex := NewExecutor("sms", time.Second, h1, h2, h3)
	res, err := ex.Execute(context.Background(), Message{To: "+22501020304", Body: "hi"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Provider != "third" {
		t.Errorf("Execute() provider = %q, want third", res.Provider)
	}
	if h1.calls != 1 || h2.calls != 1 || h3.calls != 1 {
		t.Errorf("calls = %d,%d,%d, want 1,1,1", h1.calls, h2.calls, h3.calls)
	}
}

func TestExecute_AllFail(t *testing.T) {
	h1 := &stubHandler{name: "first", err: errors.New("credit exhausted")}
	h2 := &stubHandler{name: "second", err: errors.New("route down")}
	h3 := &stubHandler{name: "third", err: errors.New("timeout")}

	ex := NewExecutor("sms", time.Second, h1, h2, h3)
	_, err := ex.Execute(context.Background(), Message{To: "+22501020304", Body: "hi"})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Execute() error = %T, want *ExhaustedError", err)
	}
	if exhausted.Capability != "sms" {
		t.Errorf("Capability = %q, want sms", exhausted.Capability)
	}
	if len(exhausted.Attempts) != 3 {
		t.Fatalf("Attempts = %d, want 3", len(exhausted.Attempts))
	}
	// Failure list preserves try order.
	for i, want := range []string{"first", "second", "third"} {
		if exhausted.Attempts[i].Provider != want {
			t.Errorf("Attempts[%d].Provider = %q, want %q", i, exhausted.Attempts[i].Provider, want)
		}
	}
	if exhausted.Attempts[1].Err != "route down" {
		t.Errorf("Attempts[1].Err = %q, want route down", exhausted.Attempts[1].Err)
	}
	if !strings.Contains(exhausted.Error(), "all 3 providers failed") {
		t.Errorf("Error() = %q, want mention of provider count", exhausted.Error())
	}
}

func TestExecute_PerHandlerRetryPolicy(t *testing.T) {
	h1 := &stubHandler{name: "first", retries: 2, err: errors.New("transient")}
	h2 := &stubHandler{name: "second"}

	ex := NewExecutor("sms", time.Second, h1, h2)
	res, err := ex.Execute(context.Background(), Message{To: "+22501020304", Body: "hi"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if h1.calls != 3 {
		t.Errorf("first handler calls = %d, want 3 (1 try + 2 retries)", h1.calls)
	}
	if res.Provider != "second" {
		t.Errorf("provider = %q, want second", res.Provider)
	}
}

func TestExecute_PanicTreatedAsFailure(t *testing.T) {
	h1 := &stubHandler{name: "first", panics: true}
	h2 := &stubHandler{name: "second"}

	ex := NewExecutor("sms", time.Second, h1, h2)
	res, err := ex.Execute(context.Background(), Message{To: "+22501020304", Body: "hi"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Provider != "second" {
		t.Errorf("provider = %q, want second", res.Provider)
	}
}

func TestExecute_SlowHandlerTimesOutAndFallsBack(t *testing.T) {
	h1 := &stubHandler{name: "first", blocks: true}
	h2 := &stubHandler{name: "second"}

	ex := NewExecutor("sms", 20*time.Millisecond, h1, h2)
	start := time.Now()
	res, err := ex.Execute(context.Background(), Message{To: "+22501020304", Body: "hi"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Provider != "second" {
		t.Errorf("provider = %q, want second", res.Provider)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("execution took %v, hung handler not bounded by timeout", elapsed)
	}
}
