package snd

import (
	"errors"
	"io"
	"testing"

	"omegasnd/audio"
	"omegasnd/config"
)

type fakeDevice struct {
	format   audio.Format
	initErr  error
	cursor   uint32
	buf      []byte
	painting bool
	submits  int
	shutdown bool
}

func newFakeDevice() *fakeDevice {
	f := audio.Format{
		Rate:              22050,
		Channels:          2,
		SampleBits:        16,
		BufferFullSamples: 16384,
		SubmissionChunk:   1024,
	}
	return &fakeDevice{format: f}
}

func (d *fakeDevice) Init() (audio.Format, error) {
	if d.initErr != nil {
		return audio.Format{}, d.initErr
	}
	d.buf = make([]byte, d.format.BufferSamples()*d.format.BytesPerSample())
	return d.format, nil
}

func (d *fakeDevice) PlayCursor() uint32 { return d.cursor }
func (d *fakeDevice) BeginPainting()     { d.painting = true }
func (d *fakeDevice) Buffer() []byte     { return d.buf }
func (d *fakeDevice) Submit()            { d.painting = false; d.submits++ }
func (d *fakeDevice) Shutdown()          { d.shutdown = true }

// setSoundTime moves the play cursor to the given sample-pair, without wrap.
func (d *fakeDevice) setSoundTime(t int) {
	d.cursor = uint32(t * d.format.Channels)
}

var errNotFound = errors.New("not found")

type fakeDecoder struct {
	sounds  map[string][]int16
	missing map[string]bool
	streams map[string]func() *fakeStream
	loads   map[string]int
	freed   int
	opened  []string
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		sounds:  map[string][]int16{},
		missing: map[string]bool{},
		streams: map[string]func() *fakeStream{},
		loads:   map[string]int{},
	}
}

// Load returns 100 samples for any name not configured otherwise.
func (d *fakeDecoder) Load(name string, _ int, _ bool) ([]int16, error) {
	d.loads[name]++
	if d.missing[name] {
		return nil, errNotFound
	}
	if s, ok := d.sounds[name]; ok {
		return append([]int16(nil), s...), nil
	}
	return make([]int16, 100), nil
}

func (d *fakeDecoder) OpenStream(name string) (Stream, error) {
	d.opened = append(d.opened, name)
	mk, ok := d.streams[name]
	if !ok {
		return nil, errNotFound
	}
	return mk(), nil
}

func (d *fakeDecoder) Free([]int16) { d.freed++ }

type fakeStream struct {
	info   StreamInfo
	data   []byte
	pos    int
	closed bool
}

func (s *fakeStream) Info() StreamInfo { return s.info }

func (s *fakeStream) Read(dst []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(dst, s.data[s.pos:])
	s.pos += n
	return n, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

// pcmStream builds a 16-bit stereo stream whose frame i holds (f(i), -f(i)).
func pcmStream(rate, frames int, f func(int) int16) func() *fakeStream {
	return func() *fakeStream {
		data := make([]byte, frames*4)
		for i := 0; i < frames; i++ {
			v := f(i)
			putInt16(data[i*4:], v)
			putInt16(data[i*4+2:], -v)
		}
		return &fakeStream{info: StreamInfo{Rate: rate, Width: 2, Channels: 2}, data: data}
	}
}

func putInt16(b []byte, v int16) {
	b[0] = byte(v)
	b[1] = byte(uint16(v) >> 8)
}

type paintCall struct {
	start, end int32
	loops      int
}

type fakePainter struct {
	calls []paintCall
}

func (p *fakePainter) Paint(job *PaintJob) {
	p.calls = append(p.calls, paintCall{start: job.Start, end: job.End, loops: len(job.LoopChannels)})
	for i := range job.Capture {
		job.Capture[i] = int16(job.Start) + int16(i/2)
	}
}

type fakeRecorder struct {
	recording bool
	fps       float64
	spans     []paintCall
	frames    int
}

func (r *fakeRecorder) IsRecording() bool { return r.recording }
func (r *fakeRecorder) FPS() float64      { return r.fps }

func (r *fakeRecorder) WriteFrames(start int32, pairs []int16) {
	r.spans = append(r.spans, paintCall{start: start, end: start + int32(len(pairs)/2)})
	r.frames += len(pairs) / 2
}

type testSystem struct {
	*System
	dev     *fakeDevice
	dec     *fakeDecoder
	painter *fakePainter
}

func newTestSystem(t *testing.T) *testSystem {
	t.Helper()
	return newTestSystemWith(t, newFakeDevice(), nil, config.Default())
}

func newTestSystemWith(t *testing.T, dev *fakeDevice, rec RecordingClock, cfg config.Config) *testSystem {
	t.Helper()
	dec := newFakeDecoder()
	p := &fakePainter{}
	var ms int32
	s := New(Options{
		Device:   dev,
		Decoder:  dec,
		Painter:  p,
		Recorder: rec,
		Clock:    func() int32 { ms += 16; return ms },
		Config:   cfg,
	})
	if !s.Init() {
		t.Fatal("Init failed")
	}
	s.BeginRegistration()
	return &testSystem{System: s, dev: dev, dec: dec, painter: p}
}

// register adds a sound of the given length and returns its handle.
func (ts *testSystem) register(t *testing.T, name string, length int) int {
	t.Helper()
	ts.dec.sounds[name] = make([]int16, length)
	h := ts.RegisterSound(name, false)
	if h == 0 {
		t.Fatalf("RegisterSound(%q) = 0", name)
	}
	return h
}

func (ts *testSystem) activeChannels() []int {
	var idx []int
	for i := range ts.channels.channels {
		if ts.channels.channels[i].Sfx != nil {
			idx = append(idx, i)
		}
	}
	return idx
}

// checkPartition asserts every slot is either free or playing, exactly once.
func (ts *testSystem) checkPartition(t *testing.T) {
	t.Helper()
	seen := make(map[int]bool)
	for _, i := range ts.channels.free {
		if seen[i] {
			t.Fatalf("slot %d on the freelist twice", i)
		}
		seen[i] = true
		if ts.channels.channels[i].Sfx != nil {
			t.Fatalf("slot %d is free but playing", i)
		}
	}
	for _, i := range ts.activeChannels() {
		if seen[i] {
			t.Fatalf("slot %d counted twice", i)
		}
		seen[i] = true
	}
	if len(seen) != MaxChannels {
		t.Fatalf("partition covers %d slots, want %d", len(seen), MaxChannels)
	}
}

func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %v", target)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("panic = %v, want %v", r, target)
		}
	}()
	fn()
}
