package clock

import (
	"testing"
	"time"
)

func TestMonotonic_NeverDecreases(t *testing.T) {
	c := NewMonotonic()

	prev := c.NowMs()
	if prev < 0 {
		t.Fatalf("expected non-negative start, got %d", prev)
	}
	for i := 0; i < 5; i++ {
		time.Sleep(2 * time.Millisecond)
		now := c.NowMs()
		if now < prev {
			t.Fatalf("clock went backwards: %d -> %d", prev, now)
		}
		prev = now
	}
}

func TestManual(t *testing.T) {
	c := NewManual(100)

	c.Advance(50)
	if c.NowMs() != 150 {
		t.Errorf("expected 150, got %d", c.NowMs())
	}

	c.Advance(-20)
	if c.NowMs() != 150 {
		t.Errorf("negative advance should be ignored, got %d", c.NowMs())
	}

	c.Set(120)
	if c.NowMs() != 150 {
		t.Errorf("Set must not move backwards, got %d", c.NowMs())
	}

	c.Set(900)
	if c.NowMs() != 900 {
		t.Errorf("expected 900, got %d", c.NowMs())
	}
}
