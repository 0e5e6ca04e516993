package main

import (
	"fmt"
	"io"
	"time"

	"omegasnd/audio"
	"omegasnd/snd"
)

// StatusMsg is a periodic snapshot of the running mixer.
type StatusMsg struct {
	Stats     snd.Stats
	Backend   string
	Device    string
	Format    audio.Format
	Volume    float64
	Doppler   bool
	Muted     bool
	Clipped   uint64
	Recording bool
	Recorded  uint64
	Elapsed   time.Duration
}

// AheadMs is how far the mixer has painted past the play cursor.
func (s StatusMsg) AheadMs() float64 {
	if s.Format.Rate == 0 {
		return 0
	}
	return float64(s.Stats.PaintedTime-s.Stats.SoundTime) * 1000 / float64(s.Format.Rate)
}

// EventSink abstracts the display layer so both the Bubble Tea TUI
// and the plain line printer receive the same events.
type EventSink interface {
	Status(StatusMsg)
	Log(text string)
}

// lineSink prints one status line per interval.
type lineSink struct {
	w     io.Writer
	every time.Duration
	last  time.Duration
	shown bool
}

func newLineSink(w io.Writer) *lineSink {
	return &lineSink{w: w, every: time.Second}
}

func (l *lineSink) Status(s StatusMsg) {
	if l.shown && s.Elapsed-l.last < l.every {
		return
	}
	l.shown = true
	l.last = s.Elapsed
	music := "-"
	if s.Stats.MusicFile != "" {
		music = s.Stats.MusicFile
	}
	fmt.Fprintf(l.w, "%6.1fs  channels %2d  loops %2d  ahead %4.0fms  music %s",
		s.Elapsed.Seconds(), s.Stats.Channels, s.Stats.LoopChannels, s.AheadMs(), music)
	if s.Clipped > 0 {
		fmt.Fprintf(l.w, "  clipped %d", s.Clipped)
	}
	if s.Recording {
		fmt.Fprintf(l.w, "  rec %.1fs", float64(s.Recorded)/float64(max(s.Format.Rate, 1)))
	}
	fmt.Fprintln(l.w)
}

func (l *lineSink) Log(text string) {
	fmt.Fprintln(l.w, text)
}
