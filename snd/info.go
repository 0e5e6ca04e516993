package snd

import (
	"fmt"
	"io"
)

// SoundInfo prints the device format and background track.
func (s *System) SoundInfo(w io.Writer) {
	fmt.Fprintln(w, "----- Sound Info -----")
	if !s.started {
		fmt.Fprintln(w, "sound system not started")
	} else {
		f := s.format
		fmt.Fprintf(w, "%5d stereo\n", f.Channels-1)
		fmt.Fprintf(w, "%5d samples\n", f.BufferSamples())
		fmt.Fprintf(w, "%5d samplebits\n", f.SampleBits)
		fmt.Fprintf(w, "%5d submission_chunk\n", f.SubmissionChunk)
		fmt.Fprintf(w, "%5d speed\n", f.Rate)
		fmt.Fprintf(w, "%s backend\n", backendName(s.device))
		if s.music.stream != nil {
			fmt.Fprintf(w, "Background file: %s\n", s.music.loopName)
		} else {
			fmt.Fprintln(w, "No background file.")
		}
	}
	fmt.Fprintln(w, "----------------------")
}

// SoundList prints every registered effect and the total length resident.
func (s *System) SoundList(w io.Writer) {
	total := 0
	for i := 0; i < s.sfx.num; i++ {
		x := &s.sfx.known[i]
		if x.Name == "" {
			continue
		}
		total += x.Length
		kind := "16bit"
		if x.Compressed {
			kind = "compressed"
		}
		mem := "paged out"
		if x.InMemory {
			mem = "resident "
		}
		fmt.Fprintf(w, "%6d[%s] : %s[%s]\n", x.Length, kind, x.Name, mem)
	}
	fmt.Fprintf(w, "Total resident: %d\n", total)
}

// Stats is a snapshot for monitors.
type Stats struct {
	SoundTime     int32
	PaintedTime   int32
	Frame         int
	Started       bool
	Muted         bool
	Channels      int
	LoopChannels  int
	Registered    int
	Resident      int
	ResidentBytes int
	MusicFile     string
	MusicBuffered int32 // sample-pairs queued on the music stream
	RawActive     int   // streams other than music with queued samples
	Active        []ChannelStat
}

type ChannelStat struct {
	Name     string
	Entity   int
	Tag      ChanTag
	LeftVol  int
	RightVol int
	Loop     bool
}

func (s *System) Stats() Stats {
	st := Stats{
		SoundTime:     s.clock.soundTime,
		PaintedTime:   s.clock.paintedTime,
		Frame:         s.frame,
		Started:       s.started,
		Muted:         s.muted,
		LoopChannels:  s.loops.num,
		Registered:    s.sfx.num,
		ResidentBytes: s.sfx.resident,
		MusicFile:     s.music.file,
	}
	for i := 0; i < s.sfx.num; i++ {
		if s.sfx.known[i].InMemory {
			st.Resident++
		}
	}
	for i := range s.channels.channels {
		ch := &s.channels.channels[i]
		if ch.Sfx == nil {
			continue
		}
		st.Channels++
		st.Active = append(st.Active, ChannelStat{
			Name: ch.Sfx.Name, Entity: ch.EntityID, Tag: ch.EntChannel,
			LeftVol: ch.LeftVol, RightVol: ch.RightVol,
		})
	}
	for i := 0; i < s.loops.num; i++ {
		ch := &s.loops.channels[i]
		st.Active = append(st.Active, ChannelStat{
			Name: ch.Sfx.Name, Entity: ch.EntityID,
			LeftVol: ch.LeftVol, RightVol: ch.RightVol, Loop: true,
		})
	}
	if d := s.raw[MusicStream].End - s.clock.soundTime; s.music.stream != nil && d > 0 {
		st.MusicBuffered = d
	}
	for i := 1; i < MaxRawStreams; i++ {
		if s.raw[i].End-s.clock.soundTime > 0 {
			st.RawActive++
		}
	}
	return st
}
