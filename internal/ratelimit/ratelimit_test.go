package ratelimit

import (
	"testing"
	"time"
)

func fixedClock(l *ClientLimiter, t time.Time) *time.Time {
	now := t
	l.now = func() time.Time { return now }
	return &now
}

func TestAllow_BurstThenDeny(t *testing.T) {
	l := NewClientLimiter(1, 2)
	fixedClock(l, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow("10.0.0.1"); !ok {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	ok, wait := l.Allow("10.0.0.1")
	if ok {
		t.Fatal("third request allowed, want denied")
	}
	if wait <= 0 || wait > time.Second {
		t.Errorf("wait = %v, want (0, 1s]", wait)
	}
}

func TestAllow_RefillsOverTime(t *testing.T) {
	l := NewClientLimiter(1, 1)
	now := fixedClock(l, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	if ok, _ := l.Allow("a"); !ok {
		t.Fatal("first request denied")
	}
	if ok, _ := l.Allow("a"); ok {
		t.Fatal("second request allowed before refill")
	}
	*now = now.Add(time.Second)
	if ok, _ := l.Allow("a"); !ok {
		t.Error("request denied after refill")
	}
}

func TestAllow_ClientsIndependent(t *testing.T) {
	l := NewClientLimiter(1, 1)
	fixedClock(l, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	if ok, _ := l.Allow("a"); !ok {
		t.Fatal("a denied")
	}
	if ok, _ := l.Allow("b"); !ok {
		t.Error("b should not be limited by a")
	}
}

func TestAllow_EvictsIdleClients(t *testing.T) {
	l := NewClientLimiter(1, 1)
	now := fixedClock(l, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	l.Allow("a")
	l.Allow("b")
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	*now = now.Add(DefaultIdleTTL + time.Second)
	l.Allow("c")
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1 after eviction", l.Len())
	}
}

func TestSweep(t *testing.T) {
	l := NewClientLimiter(1, 1)
	now := fixedClock(l, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	l.Allow("a")
	*now = now.Add(DefaultIdleTTL / 2)
	l.Allow("b")
	*now = now.Add(DefaultIdleTTL / 2)

	if n := l.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}
