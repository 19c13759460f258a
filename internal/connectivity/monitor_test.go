package connectivity

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSetStateEmitsTransitionsOnly(t *testing.T) {
	m := New(Options{Initial: Offline})
	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetState(Offline) // no transition
	m.SetState(Online)
	m.SetState(Online) // no transition
	m.SetState(Offline)

	var got []State
	for {
		select {
		case s := <-ch:
			got = append(got, s)
		default:
			if len(got) != 2 || got[0] != Online || got[1] != Offline {
				t.Fatalf("transitions = %v, want [online offline]", got)
			}
			return
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m := New(Options{Initial: Offline})
	ch, cancel := m.Subscribe()
	cancel()
	m.SetState(Online)
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after unsubscribe")
	}
}

func TestProbeLoopTransitions(t *testing.T) {
	var online atomic.Bool
	m := New(Options{
		Prober:   ProberFunc(func(context.Context) bool { return online.Load() }),
		Interval: 10 * time.Millisecond,
		Initial:  Online, // first probe sees offline, emitting a transition
	})
	ch, cancel := m.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	m.Start(ctx)
	defer m.Close()

	select {
	case s := <-ch:
		if s != Offline {
			t.Fatalf("first transition = %v, want offline", s)
		}
	case <-time.After(time.Second):
		t.Fatalf("no offline transition")
	}

	online.Store(true)
	select {
	case s := <-ch:
		if s != Online {
			t.Fatalf("second transition = %v, want online", s)
		}
	case <-time.After(time.Second):
		t.Fatalf("no online transition")
	}
}

func TestCloseWithoutStart(t *testing.T) {
	m := New(Options{})
	done := make(chan struct{})
	go func() { m.Close(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Close blocked without Start")
	}
}
