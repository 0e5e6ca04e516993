// Package snd is the mixer core: it decides what plays and when, and hands
// each span of the timeline to a Painter.
package snd

import (
	"time"

	"omegasnd/audio"
	"omegasnd/config"
	"omegasnd/log"
	"omegasnd/vec"
)

type listener struct {
	entity  int
	origin  vec.Vec3
	axes    vec.Axes
	inWater bool
}

// Options wires a System to its collaborators. Recorder and Clock are
// optional.
type Options struct {
	Device   Device
	Decoder  Decoder
	Painter  Painter
	Recorder RecordingClock
	Clock    WallClock
	Config   config.Config
}

// System is the sound system. Every method must be called from the same
// goroutine.
type System struct {
	device   Device
	decoder  Decoder
	painter  Painter
	recorder RecordingClock
	wall     WallClock

	cfg     config.Config
	pending config.Config

	format  audio.Format
	started bool
	muted   bool
	frame   int

	clock    clock
	sfx      sfxCache
	channels channelPool
	loops    loopSet
	raw      [MaxRawStreams]RawStream
	music    musicTrack
	listener listener
}

func New(opts Options) *System {
	wall := opts.Clock
	if wall == nil {
		epoch := time.Now()
		wall = func() int32 { return int32(time.Since(epoch).Milliseconds()) }
	}
	cfg := opts.Config
	cfg.Sanitize()
	s := &System{
		device:   opts.Device,
		decoder:  opts.Decoder,
		painter:  opts.Painter,
		recorder: opts.Recorder,
		wall:     wall,
		cfg:      cfg,
		pending:  cfg,
	}
	s.listener.axes = vec.Identity
	s.channels.reset()
	return s
}

// SetConfig takes effect at the next Update.
func (s *System) SetConfig(cfg config.Config) {
	cfg.Sanitize()
	s.pending = cfg
}

func (s *System) Config() config.Config {
	return s.pending
}

// Init opens the device. The system starts muted until BeginRegistration.
func (s *System) Init() bool {
	if s.started {
		return true
	}
	format, err := s.device.Init()
	if err != nil {
		log.Errorf("sound init failed: %v", err)
		return false
	}
	if format.Channels <= 0 || format.BufferFullSamples <= 0 {
		log.Errorf("sound init failed: unusable format %+v", format)
		s.device.Shutdown()
		return false
	}
	if format.SubmissionChunk <= 0 {
		format.SubmissionChunk = 1
	}
	s.format = format
	s.started = true
	s.muted = true
	s.sfx = sfxCache{}
	s.clock = clock{lastWall: s.wall()}
	s.StopAllSounds()
	log.SessionStart(backendName(s.device), format.Rate, format.Channels, format.SampleBits)
	return true
}

func backendName(d Device) string {
	if b, ok := d.(interface{ Backend() string }); ok {
		return b.Backend()
	}
	return "device"
}

func (s *System) Shutdown() {
	if !s.started {
		return
	}
	s.StopBackgroundTrack()
	s.resetSfx()
	s.device.Shutdown()
	s.started = false
	log.SessionEnd(s.frame, s.clock.soundTime)
}

// BeginRegistration unmutes and, on the first world load, installs the
// silence placeholder. Later loads keep the table.
func (s *System) BeginRegistration() {
	s.muted = false
	if s.sfx.num == 0 {
		s.sfx = sfxCache{}
		s.registerSilence()
	}
}

// DisableSounds stops everything and mutes until BeginRegistration.
func (s *System) DisableSounds() {
	s.StopAllSounds()
	s.muted = true
}

// Respatialize moves the listener, re-pans the dynamic channels and rebuilds
// the loop channels.
func (s *System) Respatialize(entity int, origin vec.Vec3, axes vec.Axes, inWater bool) {
	if !s.started || s.muted {
		return
	}
	s.listener = listener{entity: entity, origin: origin, axes: axes, inWater: inWater}

	for i := range s.channels.channels {
		ch := &s.channels.channels[i]
		if ch.Sfx == nil {
			continue
		}
		if ch.EntityID == entity {
			ch.LeftVol = ch.MasterVol
			ch.RightVol = ch.MasterVol
			continue
		}
		at := ch.Origin
		if !ch.FixedOrigin {
			at = s.loops.entries[ch.EntityID].Origin
		}
		ch.LeftVol, ch.RightVol = Spatialize(at, origin, axes, ch.MasterVol, s.format.Channels)
	}

	s.commitLoops()
}

// Update advances the clock and paints ahead of the play cursor. Call it once
// per frame.
func (s *System) Update() {
	s.frame++
	s.cfg = s.pending
	if !s.started || s.muted {
		return
	}

	now := s.wall()
	s.advanceClock()
	if s.clock.ticked && s.clock.soundTime == s.clock.lastSoundTime {
		return
	}
	s.clock.ticked = true
	s.clock.lastSoundTime = s.clock.soundTime

	s.prune()

	end := s.endTime(s.mixAhead(now - s.clock.lastWall))
	if s.recording() {
		end = s.clock.frameEnd
	}

	s.pumpMusic()
	s.paint(end)
	s.clock.lastWall = now
}

func (s *System) paint(end int32) {
	job := &PaintJob{
		Start:        s.clock.paintedTime,
		End:          end,
		Format:       s.format,
		Volume:       float32(s.cfg.Volume),
		Channels:     s.channels.channels[:],
		LoopChannels: s.loops.channels[:s.loops.num],
		Raw:          s.raw[:],
	}
	sink, capture := s.recorder.(FrameSink)
	capture = capture && s.recording() && end-job.Start > 0
	if capture {
		job.Capture = make([]int16, 2*job.Frames())
	}

	s.device.BeginPainting()
	job.Buffer = s.device.Buffer()
	if s.painter != nil && end-job.Start > 0 {
		s.painter.Paint(job)
	}
	s.device.Submit()

	if capture {
		sink.WriteFrames(job.Start, job.Capture)
	}
	s.clock.paintedTime = end
}

// ClearBuffer silences everything queued and the device ring itself.
func (s *System) ClearBuffer() {
	if !s.started {
		return
	}
	s.loops.entries = [MaxEntities]LoopEntry{}
	s.loops.channels = [MaxChannels]Channel{}
	s.loops.num = 0
	s.channels.reset()
	s.resetRaw()

	fill := byte(0)
	if s.format.SampleBits == 8 {
		fill = 0x80
	}
	s.device.BeginPainting()
	buf := s.device.Buffer()
	for i := range buf {
		buf[i] = fill
	}
	s.device.Submit()
}

func (s *System) StopAllSounds() {
	if !s.started {
		return
	}
	s.StopBackgroundTrack()
	s.ClearBuffer()
}
