package store

import (
	"testing"

	"github.com/ayusman/scoreturner/internal/gesture"
)

func TestEventRepository_RecordRecent(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	kinds := []gesture.Kind{gesture.WinkLeft, gesture.NodDown, gesture.WinkRight}
	for i, k := range kinds {
		e := &GestureEvent{Gesture: k, Command: CommandNext, Page: i, FiredAtMs: int64(1000 * i)}
		if err := repo.Record(e); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
		if e.ID == "" {
			t.Error("expected ID to be assigned")
		}
	}

	recent, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 events, got %d", len(recent))
	}
	if recent[0].Gesture != gesture.WinkRight || recent[1].Gesture != gesture.NodDown {
		t.Errorf("expected newest first, got %v, %v", recent[0].Gesture, recent[1].Gesture)
	}
	if recent[0].FiredAtMs != 2000 || recent[0].Page != 2 {
		t.Errorf("unexpected event %+v", recent[0])
	}

	none, err := repo.Recent(0)
	if err != nil || none != nil {
		t.Errorf("expected nothing for limit 0, got %v, %v", none, err)
	}
}

func TestEventRepository_CountAndPrune(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	for i := 0; i < 6; i++ {
		k := gesture.WinkLeft
		if i%3 == 0 {
			k = gesture.Smile
		}
		if err := repo.Record(&GestureEvent{Gesture: k, Command: CommandNext, FiredAtMs: int64(i)}); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
	}

	counts, err := repo.CountByGesture()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if counts[gesture.Smile] != 2 || counts[gesture.WinkLeft] != 4 {
		t.Errorf("unexpected counts %v", counts)
	}

	if err := repo.Prune(2); err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	left, _ := repo.Recent(10)
	if len(left) != 2 {
		t.Fatalf("expected 2 events after prune, got %d", len(left))
	}
	if left[0].FiredAtMs != 5 || left[1].FiredAtMs != 4 {
		t.Errorf("prune kept the wrong events: %+v", left)
	}
}
