package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"omegasnd/audio"
	"omegasnd/codec"
	"omegasnd/config"
	"omegasnd/encoder"
	"omegasnd/log"
	"omegasnd/paint"
	"omegasnd/snd"
	"omegasnd/vec"
)

const (
	listenerEntity = 0
	orbitEntity    = 1
	orbitRadius    = 240
	orbitPeriod    = 6 * time.Second
	playRadius     = 160
)

// mixer bundles the sound system with the collaborators main wires into it.
type mixer struct {
	out     *audio.Output
	dec     *codec.Decoder
	painter *paint.Painter
	rec     *encoder.Recorder
	sys     *snd.System
}

func newMixer(cfg config.Config, out *audio.Output, rec *encoder.Recorder) (*mixer, error) {
	m := &mixer{
		out:     out,
		dec:     codec.NewDir(cfg.BaseDir),
		painter: paint.New(),
		rec:     rec,
	}
	opts := snd.Options{
		Device:  out,
		Decoder: m.dec,
		Painter: m.painter,
		Config:  cfg,
	}
	if rec != nil {
		opts.Recorder = rec
	}
	m.sys = snd.New(opts)
	if !m.sys.Init() {
		return nil, fmt.Errorf("sound system did not start on %s", out.Backend())
	}
	m.sys.BeginRegistration()
	return m, nil
}

func (m *mixer) Close() {
	m.sys.Shutdown()
	if m.rec != nil && m.rec.IsRecording() {
		if err := m.rec.Stop(); err != nil {
			log.Errorf("recording: %v", err)
		}
	}
}

type loopSpec struct {
	handle   int
	origin   vec.Vec3
	velocity vec.Vec3
	sphere   bool
}

// scene is the game side: it owns the listener and the loop emitters and
// replays them to the sound system every frame.
type scene struct {
	sys     *snd.System
	handles map[string]int

	listener vec.Vec3
	loops    map[int]loopSpec

	plays    []int
	every    time.Duration
	lastPlay time.Duration
	nextPlay int
	orbit    int
	elapsed  time.Duration
}

func newScene(sys *snd.System) *scene {
	return &scene{
		sys:     sys,
		handles: map[string]int{},
		loops:   map[int]loopSpec{},
		orbit:   -1,
		every:   time.Second,
	}
}

func (sc *scene) register(name string) int {
	key := strings.ToLower(name)
	if h, ok := sc.handles[key]; ok {
		return h
	}
	h := sc.sys.RegisterSound(name, false)
	sc.handles[key] = h
	return h
}

// splitList parses a comma separated flag value.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// setPlaylist plays each sound in turn around the listener, one per interval.
func (sc *scene) setPlaylist(names []string, every time.Duration) {
	sc.plays = sc.plays[:0]
	for _, n := range names {
		sc.plays = append(sc.plays, sc.register(n))
	}
	if every > 0 {
		sc.every = every
	}
	sc.lastPlay = -sc.every
}

func (sc *scene) setOrbit(name string) {
	if name == "" {
		sc.orbit = -1
		delete(sc.loops, orbitEntity)
		return
	}
	sc.orbit = sc.register(name)
}

// around returns a point on a circle of radius r around the listener.
func (sc *scene) around(angle, r float64) vec.Vec3 {
	return vec.Add(sc.listener, vec.Vec3{float32(r * math.Cos(angle)), float32(r * math.Sin(angle)), 0})
}

// step advances the scene by dt and runs one sound frame.
func (sc *scene) step(dt time.Duration) {
	sc.elapsed += dt

	if len(sc.plays) > 0 && sc.elapsed-sc.lastPlay >= sc.every {
		sc.lastPlay = sc.elapsed
		i := sc.nextPlay % len(sc.plays)
		at := sc.around(float64(sc.nextPlay)*2.4, playRadius)
		sc.sys.StartSound(&at, snd.WorldEntity, snd.ChanAuto, sc.plays[i])
		sc.nextPlay++
	}

	if sc.orbit >= 0 {
		w := 2 * math.Pi / orbitPeriod.Seconds()
		a := w * sc.elapsed.Seconds()
		pos := sc.around(a, orbitRadius)
		speed := float32(w * orbitRadius)
		vel := vec.Vec3{-float32(math.Sin(a)) * speed, float32(math.Cos(a)) * speed, 0}
		sc.loops[orbitEntity] = loopSpec{handle: sc.orbit, origin: pos, velocity: vel}
	}

	sc.frame()
}

// frame replays the loop set and listener, then lets the mixer paint.
func (sc *scene) frame() {
	sc.sys.ClearLoopingSounds(false)
	for ent, l := range sc.loops {
		sc.sys.UpdateEntityPosition(ent, l.origin)
		if l.sphere {
			sc.sys.AddRealLoopingSound(ent, l.origin, l.velocity, l.handle)
		} else {
			sc.sys.AddLoopingSound(ent, l.origin, l.velocity, l.handle)
		}
	}
	sc.sys.UpdateEntityPosition(listenerEntity, sc.listener)
	sc.sys.Respatialize(listenerEntity, sc.listener, vec.Identity, false)
	sc.sys.Update()
}
