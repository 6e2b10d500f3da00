package monitor

import (
	"testing"
	"time"
)

func TestSendLimiterSpacing(t *testing.T) {
	cooldown := 10 * time.Second
	l := NewSendLimiter(cooldown)
	base := time.Now()

	if !l.allowAt(base) {
		t.Fatal("first send must be accepted")
	}
	if l.allowAt(base.Add(cooldown / 2)) {
		t.Fatal("send inside the cooldown must be dropped")
	}
	if !l.allowAt(base.Add(cooldown)) {
		t.Fatal("send at exactly the cooldown boundary must be accepted")
	}
}

func TestSendLimiterDropDoesNotQueue(t *testing.T) {
	cooldown := 10 * time.Second
	l := NewSendLimiter(cooldown)
	base := time.Now()

	if !l.allowAt(base) {
		t.Fatal("first send must be accepted")
	}
	// A burst of drops must not push the next accept further out.
	for i := 1; i <= 5; i++ {
		if l.allowAt(base.Add(time.Duration(i) * time.Second)) {
			t.Fatalf("send at +%ds accepted inside cooldown", i)
		}
	}
	if !l.allowAt(base.Add(cooldown)) {
		t.Fatal("drops must not delay the boundary accept")
	}
}

func TestSendLimiterDisabled(t *testing.T) {
	l := NewSendLimiter(0)
	for i := 0; i < 10; i++ {
		if !l.Allow() {
			t.Fatal("disabled limiter must always accept")
		}
	}
}
