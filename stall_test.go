package main

import "testing"

func strictMonitor() *stallMonitor {
	return newStallMonitor(func() bool { return true })
}

func lenientMonitor() *stallMonitor {
	return newStallMonitor(func() bool { return false })
}

func feedN(m *stallMonitor, moved bool, n int) StallEvent {
	var last StallEvent
	for i := 0; i < n; i++ {
		last = m.Tick(moved)
	}
	return last
}

func TestStallWarnAfter2s(t *testing.T) {
	m := lenientMonitor()
	for i := 0; i < 19; i++ {
		if ev := m.Tick(false); ev != StallNone {
			t.Fatalf("unexpected event at tick %d: %s", i, ev)
		}
	}
	if ev := m.Tick(false); ev != StallWarn {
		t.Fatalf("expected StallWarn at tick 20, got %s", ev)
	}
}

func TestStallClearsWhenMoving(t *testing.T) {
	m := lenientMonitor()
	feedN(m, false, 20)

	if ev := feedN(m, true, 2); ev != StallNone {
		t.Fatalf("cleared after 2 moving ticks: %s", ev)
	}
	if ev := m.Tick(true); ev != StallClear {
		t.Fatalf("expected StallClear on the third moving tick, got %s", ev)
	}
}

func TestNoWarnWhileMoving(t *testing.T) {
	m := lenientMonitor()
	for i := 0; i < 200; i++ {
		if ev := m.Tick(true); ev != StallNone {
			t.Fatalf("unexpected %s at tick %d", ev, i)
		}
	}
}

func TestStallRepeat(t *testing.T) {
	m := lenientMonitor()
	feedN(m, false, 20)
	if ev := feedN(m, false, 19); ev != StallNone {
		t.Fatalf("early %s", ev)
	}
	if ev := m.Tick(false); ev != StallRepeat {
		t.Fatalf("expected StallRepeat 2s after the warning, got %s", ev)
	}
}

func TestGiveUpPriorityOverRepeat(t *testing.T) {
	m := strictMonitor()
	for i := 0; i < 150; i++ {
		ev := m.Tick(false)
		if ev == StallGiveUp {
			if i != 99 {
				t.Fatalf("gave up at tick %d, want 99", i)
			}
			return
		}
	}
	t.Fatal("expected StallGiveUp within 150 ticks")
}

func TestNoGiveUpWhenLenient(t *testing.T) {
	m := lenientMonitor()
	for i := 0; i < 300; i++ {
		if ev := m.Tick(false); ev == StallGiveUp {
			t.Fatalf("unexpected give-up at tick %d", i)
		}
	}
}

func TestGiveUpPreventedByMovement(t *testing.T) {
	m := strictMonitor()
	for i := 0; i < 300; i++ {
		if ev := m.Tick(i%10 < 7); ev == StallGiveUp {
			t.Fatalf("unexpected give-up at tick %d", i)
		}
	}
}

func TestWarnStaysDuringJitter(t *testing.T) {
	m := lenientMonitor()
	feedN(m, false, 20)

	// single-tick blips are not recovery
	for i := 0; i < 40; i++ {
		if ev := m.Tick(i%10 == 0); ev == StallClear {
			t.Fatalf("cleared at tick %d", i)
		}
	}
}

func TestObserveCursor(t *testing.T) {
	m := lenientMonitor()
	m.Observe(0)
	m.Observe(512)
	for i := 0; i < 19; i++ {
		if ev := m.Observe(512); ev != StallNone {
			t.Fatalf("%s at tick %d", ev, i)
		}
	}
	if ev := m.Observe(512); ev != StallWarn {
		t.Fatalf("expected StallWarn for a frozen cursor, got %s", ev)
	}
}
