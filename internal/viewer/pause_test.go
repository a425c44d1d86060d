package viewer

import (
	"fmt"
	"testing"
)

func TestPauserInterceptsWhilePaused(t *testing.T) {
	p := newPauser()

	if p.Intercept(newEvent("live")) {
		t.Fatal("events flow through while not paused")
	}
	if !p.Pause() {
		t.Fatal("Pause() should succeed while enabled")
	}
	for i := 0; i < 3; i++ {
		if !p.Intercept(newEvent(fmt.Sprintf("buffered-%d", i))) {
			t.Fatalf("event %d not intercepted while paused", i)
		}
	}
	if got := p.Buffered(); got != 3 {
		t.Fatalf("Buffered() = %d, want 3", got)
	}

	drained := p.Resume()
	if len(drained) != 3 {
		t.Fatalf("Resume() drained %d, want 3", len(drained))
	}
	for i, e := range drained {
		if want := fmt.Sprintf("buffered-%d", i); e.Message != want {
			t.Fatalf("drained[%d].Message = %q, want %q (arrival order)", i, e.Message, want)
		}
	}
	if p.Paused() {
		t.Fatal("Resume() should clear the paused state")
	}
	if got := p.Buffered(); got != 0 {
		t.Fatalf("Buffered() after resume = %d, want 0", got)
	}
}

func TestPauserResumeIdempotent(t *testing.T) {
	p := newPauser()
	p.Pause()
	p.Intercept(newEvent("one"))
	p.Resume()

	if drained := p.Resume(); drained != nil {
		t.Fatalf("second Resume() returned %d events, want none", len(drained))
	}
}

func TestPauserDisableRefusesPause(t *testing.T) {
	p := newPauser()
	p.SetEnabled(false)

	if p.Pause() {
		t.Fatal("Pause() must be refused while disabled")
	}
	if p.Intercept(newEvent("x")) {
		t.Fatal("events must flow through while pause is refused")
	}
}

func TestPauserDisableWhilePausedFlushes(t *testing.T) {
	p := newPauser()
	p.Pause()
	p.Intercept(newEvent("a"))
	p.Intercept(newEvent("b"))

	drained := p.SetEnabled(false)
	if len(drained) != 2 {
		t.Fatalf("SetEnabled(false) drained %d, want 2", len(drained))
	}
	if p.Paused() {
		t.Fatal("disabling must force a resume")
	}

	if drained := p.SetEnabled(true); drained != nil {
		t.Fatalf("re-enabling drained %d events, want none", len(drained))
	}
}

func TestPauserNilEvent(t *testing.T) {
	p := newPauser()
	p.Pause()
	if p.Intercept(nil) {
		t.Fatal("nil event must not be buffered")
	}
	if got := p.Buffered(); got != 0 {
		t.Fatalf("Buffered() = %d, want 0", got)
	}
}
