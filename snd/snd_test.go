package snd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"omegasnd/config"
	"omegasnd/vec"
)

func TestInitStartsMuted(t *testing.T) {
	dev := newFakeDevice()
	s := New(Options{Device: dev, Decoder: newFakeDecoder(), Painter: &fakePainter{}, Config: config.Default()})
	if !s.Init() {
		t.Fatal("Init failed")
	}
	if !s.muted {
		t.Error("system should be muted until BeginRegistration")
	}
	s.BeginRegistration()
	if s.muted {
		t.Error("BeginRegistration did not unmute")
	}
	if s.sfx.num != 1 {
		t.Errorf("num = %d, want the silence placeholder only", s.sfx.num)
	}
}

func TestInitFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.initErr = errors.New("no sound card")
	s := New(Options{Device: dev, Decoder: newFakeDecoder(), Painter: &fakePainter{}, Config: config.Default()})
	if s.Init() {
		t.Fatal("Init succeeded without a device")
	}
	s.BeginRegistration()
	if h := s.RegisterSound("a.wav", false); h != 0 {
		t.Errorf("RegisterSound = %d on a stopped system", h)
	}
	s.Update()
	s.Shutdown()
}

func TestDisableSounds(t *testing.T) {
	ts := newTestSystem(t)
	h := ts.register(t, "a.wav", 1000)
	ts.StartLocalSound(h, ChanAuto)
	ts.DisableSounds()

	if n := len(ts.activeChannels()); n != 0 {
		t.Errorf("active channels = %d", n)
	}
	ts.dev.setSoundTime(100)
	ts.Update()
	if len(ts.painter.calls) != 0 {
		t.Error("painted while disabled")
	}
}

func TestClearBuffer(t *testing.T) {
	tests := []struct {
		bits int
		want byte
	}{
		{16, 0},
		{8, 0x80},
	}
	for _, tt := range tests {
		dev := newFakeDevice()
		dev.format.SampleBits = tt.bits
		ts := newTestSystemWith(t, dev, nil, config.Default())
		for i := range dev.buf {
			dev.buf[i] = 0x33
		}
		ts.clock.soundTime = 700
		ts.raw[3].End = 9000

		ts.ClearBuffer()

		for i, b := range dev.buf {
			if b != tt.want {
				t.Fatalf("%d-bit: byte %d = %#x, want %#x", tt.bits, i, b, tt.want)
			}
		}
		if ts.raw[3].End != 700 || ts.raw[MusicStream].End != 700 {
			t.Errorf("raw ends = %d/%d, want soundTime", ts.raw[3].End, ts.raw[MusicStream].End)
		}
		if dev.painting {
			t.Error("ClearBuffer left the device painting")
		}
	}
}

func TestRespatialize(t *testing.T) {
	ts := newTestSystem(t)
	h := ts.register(t, "a.wav", 1000)

	ts.UpdateEntityPosition(3, vec.Vec3{0, 10, 0})
	ts.StartSound(nil, 3, ChanAuto, h)
	fixed := vec.Vec3{0, -10, 0}
	ts.StartSound(&fixed, 4, ChanAuto, h)
	ts.StartSound(nil, 1, ChanAuto, h)

	ts.Respatialize(1, vec.Vec3{}, vec.Identity, false)

	for _, i := range ts.activeChannels() {
		ch := ts.channels.channels[i]
		switch ch.EntityID {
		case 3:
			if ch.LeftVol != 127 || ch.RightVol != 0 {
				t.Errorf("entity 3 = %d/%d, want hard left", ch.LeftVol, ch.RightVol)
			}
		case 4:
			if ch.LeftVol != 0 || ch.RightVol != 127 {
				t.Errorf("fixed origin = %d/%d, want hard right", ch.LeftVol, ch.RightVol)
			}
		case 1:
			if ch.LeftVol != ch.MasterVol || ch.RightVol != ch.MasterVol {
				t.Errorf("listener channel = %d/%d, want master", ch.LeftVol, ch.RightVol)
			}
		}
	}

	// entity moves; the channel follows on the next respatialize
	ts.UpdateEntityPosition(3, vec.Vec3{0, -10, 0})
	ts.Respatialize(1, vec.Vec3{}, vec.Identity, false)
	for _, i := range ts.activeChannels() {
		if ch := ts.channels.channels[i]; ch.EntityID == 3 && ch.RightVol != 127 {
			t.Errorf("entity 3 after move = %d/%d", ch.LeftVol, ch.RightVol)
		}
	}
}

func TestUpdateEntityPositionInvalid(t *testing.T) {
	ts := newTestSystem(t)
	expectPanic(t, ErrInvalidEntity, func() {
		ts.UpdateEntityPosition(-1, vec.Vec3{})
	})
}

func TestSetConfigAppliedOnUpdate(t *testing.T) {
	ts := newTestSystem(t)
	cfg := config.Default()
	cfg.WorldVolume = 0.5
	ts.SetConfig(cfg)
	if ts.cfg.WorldVolume != 1 {
		t.Error("config applied before Update")
	}
	ts.Update()
	if ts.cfg.WorldVolume != 0.5 {
		t.Errorf("WorldVolume = %v after Update", ts.cfg.WorldVolume)
	}
}

func TestSoundInfo(t *testing.T) {
	ts := newTestSystem(t)
	var buf bytes.Buffer
	ts.SoundInfo(&buf)
	out := buf.String()
	for _, want := range []string{"    1 stereo", "32768 samples", "   16 samplebits", " 1024 submission_chunk", "22050 speed", "No background file."} {
		if !strings.Contains(out, want) {
			t.Errorf("SoundInfo missing %q:\n%s", want, out)
		}
	}

	ts.dec.streams["theme.ogg"] = pcmStream(22050, 10, func(int) int16 { return 0 })
	ts.StartBackgroundTrack("theme.ogg", "")
	buf.Reset()
	ts.SoundInfo(&buf)
	if !strings.Contains(buf.String(), "Background file: theme.ogg") {
		t.Errorf("SoundInfo:\n%s", buf.String())
	}

	stopped := New(Options{Device: newFakeDevice(), Config: config.Default()})
	buf.Reset()
	stopped.SoundInfo(&buf)
	if !strings.Contains(buf.String(), "sound system not started") {
		t.Errorf("SoundInfo on a stopped system:\n%s", buf.String())
	}
}

func TestSoundList(t *testing.T) {
	ts := newTestSystem(t)
	ts.register(t, "weapon/fire.wav", 11025)
	ts.dec.sounds["voice/hello.wav"] = make([]int16, 300)
	ts.RegisterSound("voice/hello.wav", true)
	ts.sfx.known[1].LastUsedTime = -10
	ts.EvictOldest()

	var buf bytes.Buffer
	ts.SoundList(&buf)
	out := buf.String()
	for _, want := range []string{
		"   512[16bit] : *silence[resident ]",
		" 11025[16bit] : weapon/fire.wav[paged out]",
		"   300[compressed] : voice/hello.wav[resident ]",
		"Total resident: 11837",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SoundList missing %q:\n%s", want, out)
		}
	}
}

func TestStats(t *testing.T) {
	ts := newTestSystem(t)
	h := ts.register(t, "a.wav", 5000)
	ts.StartLocalSound(h, ChanBody)
	ts.AddLoopingSound(5, vec.Vec3{}, vec.Vec3{}, h)
	ts.Respatialize(0, vec.Vec3{}, vec.Identity, false)
	ts.RawSamples(2, 1, 22050, 2, 2, stereo16([2]int16{1, 1}), 1, -1)

	st := ts.Stats()
	if st.Channels != 1 || st.LoopChannels != 1 || len(st.Active) != 2 {
		t.Errorf("stats = %+v", st)
	}
	if st.Registered != 2 || st.Resident != 2 {
		t.Errorf("registered/resident = %d/%d", st.Registered, st.Resident)
	}
	if st.RawActive != 1 {
		t.Errorf("RawActive = %d, want 1", st.RawActive)
	}
	if st.Active[0].Tag != ChanBody || !st.Active[1].Loop {
		t.Errorf("active = %+v", st.Active)
	}
}

func TestShutdown(t *testing.T) {
	ts := newTestSystem(t)
	ts.register(t, "a.wav", 10)
	ts.register(t, "b.wav", 10)
	ts.Shutdown()
	if !ts.dev.shutdown {
		t.Error("device not shut down")
	}
	if ts.dec.freed != 2 {
		t.Errorf("freed = %d, want 2", ts.dec.freed)
	}
	if ts.sfx.num != 0 {
		t.Errorf("num = %d after shutdown", ts.sfx.num)
	}
	ts.StartLocalSound(1, ChanAuto)
	ts.Shutdown()
}

func TestChanTagString(t *testing.T) {
	if ChanAnnouncer.String() != "announcer" || ChanTag(42).String() != "unknown" {
		t.Error("unexpected ChanTag names")
	}
}
