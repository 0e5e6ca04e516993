package snd

import (
	"testing"

	"omegasnd/config"
	"omegasnd/vec"
)

func stereo16(pairs ...[2]int16) []byte {
	b := make([]byte, len(pairs)*4)
	for i, p := range pairs {
		putInt16(b[i*4:], p[0])
		putInt16(b[i*4+2:], p[1])
	}
	return b
}

func TestRawSamplesRoundTrip(t *testing.T) {
	ts := newTestSystem(t)
	ts.clock.soundTime = 500
	in := [][2]int16{{1, -1}, {32767, -32768}, {0, 0}, {1234, -4321}, {-7, 7}}

	ts.RawSamples(3, len(in), 22050, 2, 2, stereo16(in...), 1.0/256, -1)

	rs := &ts.raw[3]
	if rs.End != 500+int32(len(in)) {
		t.Fatalf("End = %d, want %d", rs.End, 500+len(in))
	}
	for i, p := range in {
		got := rs.At(500 + int32(i))
		if got.Left != int32(p[0]) || got.Right != int32(p[1]) {
			t.Errorf("pair %d = %+v, want %v", i, got, p)
		}
	}
}

func TestRawSamplesVolume(t *testing.T) {
	ts := newTestSystem(t)
	ts.RawSamples(1, 1, 22050, 2, 2, stereo16([2]int16{100, -100}), 1, -1)
	if got := ts.raw[1].At(0); got.Left != 25600 || got.Right != -25600 {
		t.Errorf("pair = %+v, want 100*256", got)
	}
}

func TestRawSamplesMonoEightBit(t *testing.T) {
	ts := newTestSystem(t)
	data := []byte{128, 255, 0}
	ts.RawSamples(2, 3, 22050, 1, 1, data, 1.0/256, -1)

	want := []int32{0, 127 * 256, -128 * 256}
	for i, w := range want {
		got := ts.raw[2].At(int32(i))
		if got.Left != w || got.Right != w {
			t.Errorf("pair %d = %+v, want %d on both sides", i, got, w)
		}
	}
}

func TestRawSamplesResample(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		in      []int16
		wantSrc []int
	}{
		{"upsample", 11025, []int16{10, 20, 30}, []int{0, 0, 1, 1, 2, 2}},
		{"downsample", 44100, []int16{10, 20, 30, 40, 50, 60}, []int{0, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestSystem(t)
			pairs := make([][2]int16, len(tt.in))
			for i, v := range tt.in {
				pairs[i] = [2]int16{v, -v}
			}
			ts.RawSamples(4, len(pairs), tt.rate, 2, 2, stereo16(pairs...), 1.0/256, -1)

			if got := ts.raw[4].End; got != int32(len(tt.wantSrc)) {
				t.Fatalf("End = %d, want %d", got, len(tt.wantSrc))
			}
			for i, src := range tt.wantSrc {
				if got := ts.raw[4].At(int32(i)); got.Left != int32(tt.in[src]) {
					t.Errorf("pair %d = %+v, want source %d", i, got, src)
				}
			}
		})
	}
}

func TestRawSamplesUnderrunSnaps(t *testing.T) {
	ts := newTestSystem(t)
	ts.RawSamples(5, 2, 22050, 2, 2, stereo16([2]int16{1, 1}, [2]int16{2, 2}), 1.0/256, -1)
	ts.clock.soundTime = 1000
	ts.RawSamples(5, 1, 22050, 2, 2, stereo16([2]int16{3, 3}), 1.0/256, -1)

	if got := ts.raw[5].End; got != 1001 {
		t.Errorf("End = %d, want 1001", got)
	}
	if got := ts.raw[5].At(1000); got.Left != 3 {
		t.Errorf("pair at 1000 = %+v", got)
	}
}

func TestRawSamplesMuted(t *testing.T) {
	cfg := config.Default()
	cfg.Muted = true
	ts := newTestSystemWith(t, newFakeDevice(), nil, cfg)
	ts.RawSamples(1, 1, 22050, 2, 2, stereo16([2]int16{500, 500}), 1, -1)
	if got := ts.raw[1].At(0); got.Left != 0 || got.Right != 0 {
		t.Errorf("pair = %+v, want silence", got)
	}
	if ts.raw[1].End != 1 {
		t.Errorf("End = %d, muted streams still advance", ts.raw[1].End)
	}
}

func TestRawSamplesSpatialised(t *testing.T) {
	ts := newTestSystem(t)
	ts.Respatialize(0, vec.Vec3{}, vec.Identity, false)
	ts.UpdateEntityPosition(9, vec.Vec3{0, -10, 0})

	ts.RawSamples(6, 1, 22050, 2, 2, stereo16([2]int16{100, 100}), 1, 9)
	got := ts.raw[6].At(0)
	if got.Left != 0 || got.Right != 25600 {
		t.Errorf("pair = %+v, want hard right at full volume", got)
	}

	// the listener's own streams are not panned
	ts.RawSamples(7, 1, 22050, 2, 2, stereo16([2]int16{100, 100}), 1, 0)
	if got := ts.raw[7].At(0); got.Left != 25600 || got.Right != 25600 {
		t.Errorf("listener pair = %+v", got)
	}
}

func TestRawSamplesIgnoresBadStream(t *testing.T) {
	ts := newTestSystem(t)
	ts.RawSamples(MaxRawStreams, 1, 22050, 2, 2, stereo16([2]int16{1, 1}), 1, -1)
	ts.RawSamples(-1, 1, 22050, 2, 2, stereo16([2]int16{1, 1}), 1, -1)
	for i := range ts.raw {
		if ts.raw[i].End != 0 {
			t.Fatalf("stream %d written", i)
		}
	}
}

func TestRawSamplesRejectsBadFormat(t *testing.T) {
	ts := newTestSystem(t)
	data := stereo16([2]int16{1, 1}, [2]int16{2, 2})
	for _, f := range []struct{ width, channels int }{{0, 2}, {2, 0}, {3, 2}, {2, 6}, {-1, 1}} {
		ts.RawSamples(1, 2, 22050, f.width, f.channels, data, 1, -1)
	}
	if end := ts.raw[1].End; end != 0 {
		t.Errorf("End = %d, want nothing queued", end)
	}
}

func TestRawSamplesWraps(t *testing.T) {
	ts := newTestSystem(t)
	ts.clock.soundTime = RawCapacity - 2
	ts.RawSamples(8, 4, 22050, 2, 2, stereo16([2]int16{1, 1}, [2]int16{2, 2}, [2]int16{3, 3}, [2]int16{4, 4}), 1.0/256, -1)
	if got := ts.raw[8].Samples[1]; got.Left != 4 {
		t.Errorf("wrapped slot 1 = %+v, want 4", got)
	}
}
