package hotkeyguard

import "testing"

func TestGuardTogglesBetweenArmedAndDisarmed(t *testing.T) {
	g := New("Ctrl+Shift+F12", nil)
	if g.Armed() {
		t.Fatal("expected a new Guard to start disarmed")
	}
	if !g.Toggle() {
		t.Fatal("expected first Toggle to arm")
	}
	if !g.Armed() {
		t.Fatal("expected Armed to report true after arming")
	}
	if g.Toggle() {
		t.Fatal("expected second Toggle to disarm")
	}
	if g.Armed() {
		t.Fatal("expected Armed to report false after disarming")
	}
}
