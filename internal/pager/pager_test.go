package pager

import (
	"sync"
	"testing"
)

func TestPager_NextPrevious(t *testing.T) {
	p := New(3)

	steps := []struct {
		name      string
		move      func() (int, bool)
		wantPage  int
		wantMoved bool
	}{
		{"back on first page", p.Previous, 0, false},
		{"forward", p.Next, 1, true},
		{"forward again", p.Next, 2, true},
		{"forward on last page", p.Next, 2, false},
		{"back", p.Previous, 1, true},
	}

	for _, s := range steps {
		page, moved := s.move()
		if page != s.wantPage || moved != s.wantMoved {
			t.Errorf("%s: got (%d, %v), want (%d, %v)", s.name, page, moved, s.wantPage, s.wantMoved)
		}
	}

	if p.Current() != 1 {
		t.Errorf("Current() = %d, want 1", p.Current())
	}
}

func TestPager_UnknownCount(t *testing.T) {
	p := New(0)

	for i := 0; i < 10; i++ {
		p.Next()
	}
	if p.Current() != 10 {
		t.Errorf("expected no upper bound, got %d", p.Current())
	}

	if page, _ := p.Go(-4); page != 0 {
		t.Errorf("Go(-4) = %d, want 0", page)
	}
}

func TestPager_SetPageCount(t *testing.T) {
	p := New(0)
	p.Go(8)

	p.SetPageCount(5)
	if cur, count := p.Snapshot(); cur != 4 || count != 5 {
		t.Errorf("Snapshot() = (%d, %d), want (4, 5)", cur, count)
	}

	p.SetPageCount(-1)
	if p.Count() != 0 {
		t.Errorf("negative count should read as unknown, got %d", p.Count())
	}
	if p.Current() != 4 {
		t.Errorf("current page should be kept, got %d", p.Current())
	}
}

func TestPager_Go(t *testing.T) {
	tests := []struct {
		name      string
		target    int
		wantPage  int
		wantMoved bool
	}{
		{"inside", 3, 3, true},
		{"same page", 3, 3, false},
		{"past end", 50, 9, true},
		{"before start", -1, 0, true},
	}

	p := New(10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, moved := p.Go(tt.target)
			if page != tt.wantPage || moved != tt.wantMoved {
				t.Errorf("Go(%d) = (%d, %v), want (%d, %v)", tt.target, page, moved, tt.wantPage, tt.wantMoved)
			}
		})
	}
}

func TestPager_Concurrent(t *testing.T) {
	p := New(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Next()
		}()
	}
	wg.Wait()

	if p.Current() != 50 {
		t.Errorf("Current() = %d, want 50", p.Current())
	}
}
