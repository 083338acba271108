package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSetBaseContextNilResetsToBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	SetBaseContext(ctx)
	//lint:ignore SA1012 nil is the documented reset
	SetBaseContext(nil)
	if serverBaseCtx != context.Background() {
		t.Fatalf("expected background context after nil reset")
	}
}

func TestJoinContextsCancelsWhenEitherDone(t *testing.T) {
	for _, first := range []bool{true, false} {
		a, ac := context.WithCancel(context.Background())
		b, bc := context.WithCancel(context.Background())
		j, cancelJ := joinContexts(a, b)
		if first {
			ac()
		} else {
			bc()
		}
		select {
		case <-j.Done():
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("joined context not cancelled (first parent=%v)", first)
		}
		if !errors.Is(j.Err(), context.Canceled) {
			t.Fatalf("unexpected err %v", j.Err())
		}
		cancelJ()
		ac()
		bc()
	}
}

func TestJoinContextsCarriesCause(t *testing.T) {
	cause := errors.New("shutting down")
	b, bc := context.WithCancelCause(context.Background())
	j, cancelJ := joinContexts(context.Background(), b)
	defer cancelJ()
	bc(cause)
	<-j.Done()
	if !errors.Is(context.Cause(j), cause) {
		t.Fatalf("cause = %v", context.Cause(j))
	}
}
