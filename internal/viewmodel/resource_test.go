package viewmodel

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
)

func TestResource_FailureKeepsPreviousValue(t *testing.T) {
	fail := false
	r := NewResource("topics", func(context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("down")
		}
		return []string{"a", "b"}, nil
	})

	if _, ok := r.Get(); ok {
		t.Fatal("resource loaded before first refresh")
	}
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fail = true
	if err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	got, ok := r.Get()
	if !ok || !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Get() = %v, %v; want previous value", got, ok)
	}
}

func TestResource_NotifiesOnApply(t *testing.T) {
	r := NewResource("stats", func(context.Context) (int, error) { return 3, nil })
	var n atomic.Int32
	r.Subscribe(func() { n.Add(1) })

	_ = r.Refresh(context.Background())
	if n.Load() != 1 {
		t.Errorf("notifications = %d, want 1", n.Load())
	}
}

func TestResource_OvertakenResponseDropped(t *testing.T) {
	g := newGate()
	var call atomic.Int32
	r := NewResource("content", func(context.Context) (string, error) {
		if call.Add(1) == 1 {
			g.wait()
			return "old", nil
		}
		return "new", nil
	})

	done := make(chan struct{})
	go func() {
		_ = r.Refresh(context.Background())
		close(done)
	}()
	g.awaitEntered(t)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	g.open()
	<-done

	if v, _ := r.Get(); v != "new" {
		t.Errorf("value = %q, want new", v)
	}
}
