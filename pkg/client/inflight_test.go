package client

import (
	"errors"
	"testing"
	"time"
)

func TestInFlightRegistry_LeaderAndWaiters(t *testing.T) {
	r := newInFlightRegistry()
	key := "fetch:GET:http://example.com/data"

	leader, join := r.begin(key)
	if !leader {
		t.Fatal("First begin should elect a leader")
	}
	if join != nil {
		t.Error("Leader should not receive a join channel")
	}

	leader2, join2 := r.begin(key)
	if leader2 {
		t.Fatal("Second begin for same key must not elect a second leader")
	}
	if join2 == nil {
		t.Fatal("Waiter must receive a join channel")
	}

	result := &FetchResult{StatusCode: 200, Body: []byte("A"), Fresh: true}
	r.complete(key, outcome{result: result})

	select {
	case out := <-join2:
		if out.err != nil {
			t.Fatalf("Waiter received error: %v", out.err)
		}
		if string(out.result.Body) != "A" {
			t.Errorf("Waiter body = %q, want %q", out.result.Body, "A")
		}
		if !out.result.Fresh {
			t.Error("Waiter must observe the leader's freshness")
		}
	case <-time.After(time.Second):
		t.Fatal("Waiter never received the leader's outcome")
	}

	if r.inFlight() != 0 {
		t.Errorf("inFlight() = %d after complete, want 0", r.inFlight())
	}
}

func TestInFlightRegistry_WaitersJoinInOrder(t *testing.T) {
	r := newInFlightRegistry()
	key := "k"

	if leader, _ := r.begin(key); !leader {
		t.Fatal("Expected leader")
	}

	var joins []<-chan outcome
	for i := 0; i < 5; i++ {
		leader, join := r.begin(key)
		if leader {
			t.Fatalf("Waiter %d elected leader", i)
		}
		joins = append(joins, join)
	}

	r.mu.Lock()
	call := r.calls[key]
	if len(call.waiters) != 5 {
		t.Fatalf("Waiter count = %d, want 5", len(call.waiters))
	}
	// complete walks this slice front to back, so join order is
	// delivery order
	for i, ch := range call.waiters {
		if joins[i] != (<-chan outcome)(ch) {
			t.Errorf("Waiter %d is out of join order", i)
		}
	}
	r.mu.Unlock()

	r.complete(key, outcome{err: errors.New("boom")})

	for i, join := range joins {
		select {
		case out := <-join:
			if out.err == nil {
				t.Errorf("Waiter %d expected the leader's error", i)
			}
		default:
			t.Errorf("Waiter %d did not receive an outcome", i)
		}
	}
}

func TestInFlightRegistry_ErrorDeliveredToAllWaiters(t *testing.T) {
	r := newInFlightRegistry()
	key := "k"

	r.begin(key)
	_, join1 := r.begin(key)
	_, join2 := r.begin(key)

	boom := errors.New("transport down")
	r.complete(key, outcome{err: boom})

	for i, join := range []<-chan outcome{join1, join2} {
		out := <-join
		if !errors.Is(out.err, boom) {
			t.Errorf("Waiter %d error = %v, want %v", i, out.err, boom)
		}
	}
}

func TestInFlightRegistry_NewLeaderAfterComplete(t *testing.T) {
	r := newInFlightRegistry()
	key := "k"

	r.begin(key)
	r.complete(key, outcome{result: &FetchResult{}})

	leader, _ := r.begin(key)
	if !leader {
		t.Error("begin after complete should elect a fresh leader")
	}
}

func TestInFlightRegistry_KeysAreIndependent(t *testing.T) {
	r := newInFlightRegistry()

	leaderA, _ := r.begin("a")
	leaderB, _ := r.begin("b")

	if !leaderA || !leaderB {
		t.Error("Distinct keys must each elect their own leader")
	}
	if r.inFlight() != 2 {
		t.Errorf("inFlight() = %d, want 2", r.inFlight())
	}

	r.complete("a", outcome{result: &FetchResult{}})
	if r.inFlight() != 1 {
		t.Errorf("inFlight() = %d after completing one key, want 1", r.inFlight())
	}
}

func TestInFlightRegistry_CompleteUnknownKeyIsNoop(t *testing.T) {
	r := newInFlightRegistry()
	r.complete("never-begun", outcome{err: errors.New("x")})

	if r.inFlight() != 0 {
		t.Errorf("inFlight() = %d, want 0", r.inFlight())
	}
}
