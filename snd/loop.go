package snd

import (
	"omegasnd/log"
	"omegasnd/vec"
)

const MaxDopplerScale = 50

// LoopEntry is the per-entity loop slot. Its origin is also the entity's
// last known position for dynamic channels.
type LoopEntry struct {
	Active          bool
	Kill            bool // point-source attenuation; false = sphere
	Sfx             *Sfx
	Origin          vec.Vec3
	Velocity        vec.Vec3
	Doppler         bool
	OldDopplerScale float32
	DopplerScale    float32
	Framenum        int
	mergeFrame      int
}

type loopSet struct {
	entries  [MaxEntities]LoopEntry
	channels [MaxChannels]Channel
	num      int
	frameTag int
}

func (s *System) loopSfx(caller string, entity, handle int) (*Sfx, bool) {
	if entity < 0 || entity >= MaxEntities {
		log.Warnf("%s: %v %d", caller, ErrInvalidEntity, entity)
		return nil, false
	}
	x, ok := s.sfxByHandle(handle)
	if !ok {
		log.Warnf("%s: %v %d", caller, ErrInvalidHandle, handle)
		return nil, false
	}
	if !x.InMemory {
		s.loadSfx(x)
	}
	if x.Length == 0 {
		fatal(ErrZeroLengthEffect, "%s: %s", caller, x.Name)
	}
	return x, true
}

// AddLoopingSound keeps handle playing at origin for this frame. Moving
// emitters get a doppler scale from their velocity toward the listener.
func (s *System) AddLoopingSound(entity int, origin, velocity vec.Vec3, handle int) {
	if !s.started {
		return
	}
	x, ok := s.loopSfx("AddLoopingSound", entity, handle)
	if !ok {
		return
	}

	e := &s.loops.entries[entity]
	prevScale := e.DopplerScale
	e.Sfx = x
	e.Origin = origin
	e.Velocity = velocity
	e.Active = true
	e.Kill = true
	e.Doppler = false
	e.OldDopplerScale = 1
	e.DopplerScale = 1

	if s.cfg.Doppler && velocity.LengthSquared() > 0 {
		lena := vec.DistanceSquared(s.listener.origin, origin)
		lenb := vec.DistanceSquared(s.listener.origin, vec.Add(origin, velocity))
		e.Doppler = true
		if e.Framenum+1 == s.frame && prevScale > 0 {
			e.OldDopplerScale = prevScale
		}
		if lena > 0 {
			e.DopplerScale = lenb / (lena * 100)
		} else {
			e.DopplerScale = 0
		}
		if e.DopplerScale <= 1 {
			e.Doppler = false
		} else if e.DopplerScale > MaxDopplerScale {
			e.DopplerScale = MaxDopplerScale
		}
	}
	e.Framenum = s.frame
}

// AddRealLoopingSound adds a sphere-attenuated loop that survives frames in
// which the entity is not re-added.
func (s *System) AddRealLoopingSound(entity int, origin, velocity vec.Vec3, handle int) {
	if !s.started {
		return
	}
	x, ok := s.loopSfx("AddRealLoopingSound", entity, handle)
	if !ok {
		return
	}
	e := &s.loops.entries[entity]
	e.Sfx = x
	e.Origin = origin
	e.Velocity = velocity
	e.Active = true
	e.Kill = false
	e.Doppler = false
}

func (s *System) StopLoopingSound(entity int) {
	if entity < 0 || entity >= MaxEntities {
		return
	}
	e := &s.loops.entries[entity]
	e.Active = false
	e.Kill = false
}

// ClearLoopingSounds starts a frame's loop set. Sphere loops survive unless
// killAll is set.
func (s *System) ClearLoopingSounds(killAll bool) {
	for i := range s.loops.entries {
		e := &s.loops.entries[i]
		if killAll || e.Kill || (e.Sfx != nil && e.Sfx.Length == 0) {
			e.Active = false
			e.Kill = false
		}
	}
	s.loops.num = 0
}

// UpdateEntityPosition records where entity is for sounds that follow it.
func (s *System) UpdateEntityPosition(entity int, origin vec.Vec3) {
	if entity < 0 || entity >= MaxEntities {
		fatal(ErrInvalidEntity, "UpdateEntityPosition: bad entity %d", entity)
	}
	s.loops.entries[entity].Origin = origin
}

// commitLoops spatialises the active loops into loop channels. Loops sharing
// an effect without doppler play in phase, so they merge into one channel
// carrying the summed volume.
func (s *System) commitLoops() {
	ls := &s.loops
	ls.frameTag++
	ls.num = 0
	world := float32(s.cfg.WorldVolume)
	channels := s.format.Channels

	vol := func(e *LoopEntry) int {
		if e.Kill {
			return MasterVol
		}
		return SphereVol
	}

	for i := range ls.entries {
		e := &ls.entries[i]
		if !e.Active || e.mergeFrame == ls.frameTag || e.Sfx == nil {
			continue
		}
		left, right := Spatialize(e.Origin, s.listener.origin, s.listener.axes, vol(e), channels)
		s.touch(e.Sfx)

		for j := i + 1; j < MaxEntities; j++ {
			f := &ls.entries[j]
			if !f.Active || f.Doppler || f.Sfx != e.Sfx {
				continue
			}
			f.mergeFrame = ls.frameTag
			l, r := Spatialize(f.Origin, s.listener.origin, s.listener.axes, vol(f), channels)
			s.touch(f.Sfx)
			left += l
			right += r
		}

		if left == 0 && right == 0 {
			continue
		}
		left = min(left, 255)
		right = min(right, 255)

		ls.channels[ls.num] = Channel{
			Sfx:             e.Sfx,
			EntityID:        i,
			MasterVol:       MasterVol,
			LeftVol:         int(float32(left) * world),
			RightVol:        int(float32(right) * world),
			Doppler:         e.Doppler,
			DopplerScale:    e.DopplerScale,
			OldDopplerScale: e.OldDopplerScale,
		}
		ls.num++
		if ls.num >= MaxChannels {
			return
		}
	}
}
