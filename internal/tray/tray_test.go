package tray

import (
	"testing"

	"github.com/ayusman/scoreturner/internal/gesture"
)

func TestTray_Toggle(t *testing.T) {
	tr := New(false)

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("toggle callbacks = %v, want [true false]", got)
	}
	if tr.IsEnabled() {
		t.Error("expected disabled after two toggles")
	}

	tr.SetEnabled(true)
	if !tr.IsEnabled() {
		t.Error("SetEnabled(true) not applied")
	}
}

func TestTray_StateBeforeMenu(t *testing.T) {
	tr := New(true)

	// Updates before Run only touch state.
	tr.SetLastGesture(gesture.NodDown)
	tr.SetPage(3, 12)

	if tr.lastGesture != "nod_down" || tr.page != 3 || tr.count != 12 {
		t.Errorf("unexpected state %q %d %d", tr.lastGesture, tr.page, tr.count)
	}
}

func TestTray_Titles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{toggleTitle(true), "● Face gestures on"},
		{toggleTitle(false), "○ Face gestures off"},
		{lastGestureTitle(""), "Last: none"},
		{lastGestureTitle("smile"), "Last: smile"},
		{pageTitle(0, 0), "Page 1"},
		{pageTitle(4, 10), "Page 5 of 10"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestTray_CallbacksOptional(t *testing.T) {
	tr := New(true)
	tr.handleToggle()
	tr.call(func() func() { return tr.onSettings })

	called := false
	tr.OnRecalibrate(func() { called = true })
	tr.call(func() func() { return tr.onRecalibrate })
	if !called {
		t.Error("recalibrate callback not run")
	}
}
