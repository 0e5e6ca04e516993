package main

import "time"

// The watchdog samples the play cursor every stallTick. The mixer clock is
// derived from that cursor, so a device that stops consuming freezes every
// sound.
const (
	stallTick    = 100 * time.Millisecond
	stallWarnFor = 2 * time.Second // also the reminder period
	stallMaxFor  = 10 * time.Second
	stallResume  = 300 * time.Millisecond
)

type StallEvent int

const (
	StallNone   StallEvent = iota
	StallWarn              // cursor frozen for stallWarnFor
	StallClear             // cursor moving steadily again
	StallRepeat            // still frozen
	StallGiveUp            // frozen for stallMaxFor; the run ends
)

func (e StallEvent) String() string {
	switch e {
	case StallWarn:
		return "warn"
	case StallClear:
		return "clear"
	case StallRepeat:
		return "repeat"
	case StallGiveUp:
		return "give-up"
	}
	return "none"
}

type stallMonitor struct {
	warnTicks   int
	maxTicks    int
	resumeTicks int
	fatal       func() bool // whether a long stall ends the run

	primed bool
	cursor uint32
	frozen int // consecutive ticks without movement
	moving int // consecutive ticks with movement
	warned bool
}

func newStallMonitor(fatal func() bool) *stallMonitor {
	return &stallMonitor{
		warnTicks:   int(stallWarnFor / stallTick),
		maxTicks:    int(stallMaxFor / stallTick),
		resumeTicks: int(stallResume / stallTick),
		fatal:       fatal,
	}
}

// Observe feeds the current play cursor.
func (m *stallMonitor) Observe(cursor uint32) StallEvent {
	moved := !m.primed || cursor != m.cursor
	m.primed = true
	m.cursor = cursor
	return m.Tick(moved)
}

func (m *stallMonitor) Tick(moved bool) StallEvent {
	if moved {
		m.frozen = 0
		m.moving++
		if m.warned && m.moving >= m.resumeTicks {
			m.warned = false
			return StallClear
		}
		return StallNone
	}

	m.moving = 0
	m.frozen++
	switch {
	case m.frozen >= m.maxTicks && m.fatal():
		return StallGiveUp
	case !m.warned && m.frozen >= m.warnTicks:
		m.warned = true
		return StallWarn
	case m.warned && m.frozen%m.warnTicks == 0:
		return StallRepeat
	}
	return StallNone
}
