package snd

import (
	"omegasnd/log"
	"omegasnd/vec"
)

const (
	MaxChannels = 96
	MaxEntities = 1024
	// WorldEntity owns sounds not attached to any entity.
	WorldEntity = MaxEntities - 2

	DefaultMasterVol = 127

	// StartImmediate marks a channel that begins at the next paintedTime.
	StartImmediate int32 = -1 << 31

	listenerBurstCap = 16
	defaultBurstCap  = 8
)

type ChanTag int

const (
	ChanAuto ChanTag = iota
	ChanWeapon
	ChanVoice
	ChanItem
	ChanBody
	ChanAnnouncer
)

func (t ChanTag) String() string {
	switch t {
	case ChanAuto:
		return "auto"
	case ChanWeapon:
		return "weapon"
	case ChanVoice:
		return "voice"
	case ChanItem:
		return "item"
	case ChanBody:
		return "body"
	case ChanAnnouncer:
		return "announcer"
	}
	return "unknown"
}

// Channel is one playing effect. Loop channels reuse the type; only the
// dynamic pool uses StartSample and AllocTime.
type Channel struct {
	Sfx         *Sfx
	EntityID    int
	EntChannel  ChanTag
	MasterVol   int
	LeftVol     int
	RightVol    int
	Origin      vec.Vec3
	FixedOrigin bool
	StartSample int32
	AllocTime   int32

	Doppler         bool
	DopplerScale    float32
	OldDopplerScale float32
}

// channelPool holds the dynamic channels. free is a stack of unused slot
// indices; a slot is either on it or has a non-nil Sfx.
type channelPool struct {
	channels [MaxChannels]Channel
	free     []int
}

func (p *channelPool) reset() {
	p.channels = [MaxChannels]Channel{}
	p.free = p.free[:0]
	for i := 0; i < MaxChannels; i++ {
		p.free = append(p.free, i)
	}
}

func (p *channelPool) alloc() (int, bool) {
	n := len(p.free)
	if n == 0 {
		return 0, false
	}
	i := p.free[n-1]
	p.free = p.free[:n-1]
	return i, true
}

func (p *channelPool) release(i int) {
	p.channels[i] = Channel{}
	p.free = append(p.free, i)
}

// StartSound plays handle from entity. A nil origin follows the entity's
// last known position.
func (s *System) StartSound(origin *vec.Vec3, entity int, tag ChanTag, handle int) {
	if !s.started || s.muted {
		return
	}
	x, ok := s.sfxByHandle(handle)
	if !ok {
		log.Warnf("StartSound: %v %d", ErrInvalidHandle, handle)
		return
	}
	if origin == nil && (entity < 0 || entity >= MaxEntities) {
		fatal(ErrInvalidEntity, "StartSound: bad entity %d", entity)
	}
	if !x.InMemory {
		s.loadSfx(x)
	}

	now := s.clock.soundTime
	pool := &s.channels

	if entity != WorldEntity {
		for i := range pool.channels {
			ch := &pool.channels[i]
			if ch.Sfx == x && ch.EntityID == entity && ch.AllocTime == now {
				return
			}
		}
	}

	// cap copies of the same effect from one emitter
	inplay := 0
	for i := range pool.channels {
		ch := &pool.channels[i]
		if ch.Sfx == x && ch.EntityID == entity {
			inplay++
		}
	}
	limit := defaultBurstCap
	if entity == s.listener.entity {
		limit = listenerBurstCap
	}
	if inplay >= limit {
		return
	}

	i, ok := pool.alloc()
	if !ok {
		i, ok = s.preempt(entity)
		if !ok {
			log.Debugf("StartSound: %v, dropping %s", ErrChannelStarvation, x.Name)
			return
		}
	}

	ch := &pool.channels[i]
	*ch = Channel{
		Sfx:         x,
		EntityID:    entity,
		EntChannel:  tag,
		MasterVol:   DefaultMasterVol,
		LeftVol:     DefaultMasterVol,
		RightVol:    DefaultMasterVol,
		FixedOrigin: origin != nil,
		StartSample: StartImmediate,
		AllocTime:   now,
	}
	if origin != nil {
		ch.Origin = *origin
	}
	s.touch(x)
}

// preempt picks a slot to steal, oldest first: the same entity's channels,
// then any non-listener channel, then anything when the listener holds
// channel 0.
func (s *System) preempt(entity int) (int, bool) {
	pool := &s.channels
	listener := s.listener.entity

	oldestOf := func(match func(*Channel) bool) (int, bool) {
		oldest := s.clock.soundTime
		chosen := -1
		for i := range pool.channels {
			ch := &pool.channels[i]
			if match(ch) && ch.AllocTime-oldest < 0 {
				oldest = ch.AllocTime
				chosen = i
			}
		}
		return chosen, chosen >= 0
	}

	if i, ok := oldestOf(func(ch *Channel) bool {
		return ch.EntityID != listener && ch.EntityID == entity && ch.EntChannel != ChanAnnouncer
	}); ok {
		return i, true
	}
	if i, ok := oldestOf(func(ch *Channel) bool {
		return ch.EntityID != listener && ch.EntChannel != ChanAnnouncer
	}); ok {
		return i, true
	}
	if pool.channels[0].EntityID == listener {
		return oldestOf(func(*Channel) bool { return true })
	}
	return 0, false
}

// StartLocalSound plays handle on the listener without attenuation.
func (s *System) StartLocalSound(handle int, tag ChanTag) {
	if !s.started || s.muted {
		return
	}
	if _, ok := s.sfxByHandle(handle); !ok {
		log.Warnf("StartLocalSound: %v %d", ErrInvalidHandle, handle)
		return
	}
	s.StartSound(nil, s.listener.entity, tag, handle)
}

// prune schedules channels started since the last Update and frees the ones
// that have finished. It reports whether any channel was scheduled.
func (s *System) prune() bool {
	started := false
	pool := &s.channels
	for i := range pool.channels {
		ch := &pool.channels[i]
		if ch.Sfx == nil {
			continue
		}
		if ch.StartSample == StartImmediate {
			ch.StartSample = s.clock.paintedTime
			started = true
			continue
		}
		if ch.StartSample+int32(ch.Sfx.Length)-s.clock.soundTime <= 0 {
			pool.release(i)
		}
	}
	return started
}
