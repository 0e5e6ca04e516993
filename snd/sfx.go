package snd

import (
	"strings"

	"omegasnd/log"
)

const (
	MaxSfx       = 4096
	MaxSfxName   = 64
	sfxHashSize  = 128
	silenceName  = "*silence"
	silenceLen   = 512
	bytesPerSfxS = 2
)

// Sfx is a registered effect. Data is nil while paged out; Length survives
// eviction so channels still referencing it expire on time.
type Sfx struct {
	Name         string
	Length       int
	Data         []int16
	InMemory     bool
	DefaultSound bool
	Compressed   bool
	LastUsedTime int32

	handle int
	next   *Sfx
}

func (x *Sfx) Handle() int { return x.handle }

// sfxCache is a flat table of effects with a hashed name index.
type sfxCache struct {
	known    [MaxSfx]Sfx
	num      int
	hash     [sfxHashSize]*Sfx
	resident int // bytes of sample data in memory
}

func canonicalName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

func hashName(name string) int {
	var h int
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c == '.' {
			break
		}
		if c == '\\' {
			c = '/'
		}
		h += int(c) * (i + 119)
	}
	return h & (sfxHashSize - 1)
}

// findSfx returns the entry for name, claiming a slot if it is new.
func (s *System) findSfx(name string) *Sfx {
	c := &s.sfx
	name = canonicalName(name)
	h := hashName(name)
	for x := c.hash[h]; x != nil; x = x.next {
		if strings.EqualFold(x.Name, name) {
			return x
		}
	}

	i := 0
	for ; i < c.num; i++ {
		if c.known[i].Name == "" {
			break
		}
	}
	if i == c.num {
		if c.num == MaxSfx {
			fatal(ErrPoolExhausted, "registering %s", name)
		}
		c.num++
	}

	x := &c.known[i]
	*x = Sfx{Name: name, handle: i, next: c.hash[h]}
	c.hash[h] = x
	return x
}

// RegisterSound returns a handle for name, loading it if needed. Names that
// fail to load return the silence handle 0.
func (s *System) RegisterSound(name string, compressed bool) int {
	if !s.started {
		return 0
	}
	if name == "" {
		log.Warn("RegisterSound: empty name")
		return 0
	}
	if len(name) > MaxSfxName {
		log.Warnf("RegisterSound: sound name too long: %s", name)
		return 0
	}
	if name[0] == '*' {
		log.Warnf("RegisterSound: reserved sound name: %s", name)
		return 0
	}

	x := s.findSfx(name)
	if x.Data != nil {
		if x.DefaultSound {
			log.Warnf("could not find %s - using default", x.Name)
			return 0
		}
		return x.handle
	}

	x.InMemory = false
	x.Compressed = compressed
	s.loadSfx(x)
	if x.DefaultSound {
		log.Warnf("could not find %s - using default", x.Name)
		return 0
	}
	return x.handle
}

// loadSfx decodes x. A failed load leaves a short block of silence so the
// effect stays playable.
func (s *System) loadSfx(x *Sfx) {
	x.DefaultSound = false
	data, err := s.decoder.Load(x.Name, s.format.Rate, x.Compressed)
	if err != nil || len(data) == 0 {
		if err == nil {
			err = ErrZeroLengthEffect
		}
		log.Debugf("%v: %s: %v", ErrDecoderLoadFailed, x.Name, err)
		x.DefaultSound = true
		data = make([]int16, silenceLen)
	}
	x.Data = data
	x.Length = len(data)
	x.InMemory = true
	x.LastUsedTime = s.clock.soundTime
	s.sfx.resident += len(data) * bytesPerSfxS
	s.relieveMemory(x)
}

// relieveMemory pages out the least recently used effects while resident
// sample data exceeds the configured budget.
func (s *System) relieveMemory(keep *Sfx) {
	budget := s.cfg.SfxMemoryMB << 20
	if budget <= 0 {
		return
	}
	for s.sfx.resident > budget {
		if !s.evictOldest(keep) {
			return
		}
	}
}

func (s *System) touch(x *Sfx) {
	x.LastUsedTime = s.clock.soundTime
}

// EvictOldest pages out the resident effect used least recently. It reports
// whether anything was freed.
func (s *System) EvictOldest() bool {
	return s.evictOldest(nil)
}

func (s *System) evictOldest(keep *Sfx) bool {
	var oldest *Sfx
	for i := 1; i < s.sfx.num; i++ {
		x := &s.sfx.known[i]
		if !x.InMemory || x == keep || x.Data == nil {
			continue
		}
		if oldest == nil || x.LastUsedTime-oldest.LastUsedTime < 0 {
			oldest = x
		}
	}
	if oldest == nil {
		return false
	}
	log.Debugf("paging out %s", oldest.Name)
	if !oldest.DefaultSound {
		s.decoder.Free(oldest.Data)
	}
	s.sfx.resident -= len(oldest.Data) * bytesPerSfxS
	oldest.Data = nil
	oldest.InMemory = false
	return true
}

// registerSilence installs the placeholder at handle 0.
func (s *System) registerSilence() {
	x := s.findSfx(silenceName)
	x.Data = make([]int16, silenceLen)
	x.Length = silenceLen
	x.InMemory = true
	s.sfx.resident += silenceLen * bytesPerSfxS
}

func (s *System) resetSfx() {
	for i := 0; i < s.sfx.num; i++ {
		if x := &s.sfx.known[i]; x.Data != nil && !x.DefaultSound && i != 0 {
			s.decoder.Free(x.Data)
		}
	}
	s.sfx = sfxCache{}
}

func (s *System) sfxByHandle(handle int) (*Sfx, bool) {
	if handle < 0 || handle >= s.sfx.num {
		return nil, false
	}
	return &s.sfx.known[handle], true
}
