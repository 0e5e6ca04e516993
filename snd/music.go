package snd

import (
	"errors"
	"io"

	"omegasnd/log"
)

const musicScratchBytes = 30000

type musicTrack struct {
	stream   Stream
	info     StreamInfo
	file     string
	loopName string
	scratch  [musicScratchBytes]byte
}

// StartBackgroundTrack plays intro once, then loop forever. An empty loop
// repeats the intro; an empty intro stops the music.
func (s *System) StartBackgroundTrack(intro, loop string) {
	if intro == "" {
		s.StopBackgroundTrack()
		return
	}
	if loop == "" {
		loop = intro
	}
	log.Debugf("StartBackgroundTrack(%s, %s)", intro, loop)

	// raw stream 0 keeps its cursor so restarting a track leaves no gap
	s.closeMusic()
	s.music.loopName = loop
	s.openMusic(intro)
}

func (s *System) StopBackgroundTrack() {
	s.closeMusic()
	s.raw[MusicStream].End = 0
}

func (s *System) closeMusic() {
	if s.music.stream != nil {
		if err := s.music.stream.Close(); err != nil {
			log.Debugf("closing music %s: %v", s.music.file, err)
		}
	}
	s.music.stream = nil
	s.music.file = ""
}

func (s *System) openMusic(name string) bool {
	st, err := s.decoder.OpenStream(name)
	if err != nil {
		log.Warnf("couldn't open music file %s: %v", name, err)
		return false
	}
	info := st.Info()
	if info.Channels != 2 || info.Rate != 22050 {
		log.Warnf("music file %s is not 22k stereo", name)
	}
	if info.Width <= 0 || info.Channels <= 0 || info.Rate <= 0 {
		log.Warnf("music file %s has no usable format", name)
		st.Close()
		return false
	}
	s.music.stream = st
	s.music.info = info
	s.music.file = name
	return true
}

// pumpMusic tops up raw stream 0 from the background track until the ring
// is full, reopening the loop file at end of stream.
func (s *System) pumpMusic() {
	m := &s.music
	if s.cfg.MusicVolume <= 0 || m.stream == nil {
		return
	}
	rs := &s.raw[MusicStream]
	now := s.clock.soundTime
	if rs.End-now < 0 {
		rs.End = now
	}

	reopened := false
	for rs.End-s.clock.soundTime < RawCapacity {
		info := m.info
		frameBytes := info.Width * info.Channels
		bufferSamples := RawCapacity - int(rs.End-s.clock.soundTime)
		fileSamples := bufferSamples * info.Rate / s.format.Rate
		if fileSamples == 0 {
			return
		}
		fileBytes := fileSamples * frameBytes
		if fileBytes > len(m.scratch) {
			fileBytes = len(m.scratch) / frameBytes * frameBytes
			fileSamples = fileBytes / frameBytes
		}

		n, err := io.ReadFull(m.stream, m.scratch[:fileBytes])
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			log.Warnf("reading music %s: %v", m.file, err)
		}
		if n < fileBytes {
			fileSamples = n / frameBytes
		}

		if fileSamples > 0 {
			s.RawSamples(MusicStream, fileSamples, info.Rate, info.Width, info.Channels,
				m.scratch[:n], float32(s.cfg.MusicVolume), -1)
			reopened = false
			continue
		}

		if m.loopName == "" || reopened {
			s.StopBackgroundTrack()
			return
		}
		loop := m.loopName
		s.closeMusic()
		if !s.openMusic(loop) {
			return
		}
		reopened = true
	}
}
