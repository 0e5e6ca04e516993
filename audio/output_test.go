package audio

import (
	"errors"
	"testing"
)

type fakeContext struct {
	devices []DeviceInfo
}

func (f *fakeContext) Devices() ([]DeviceInfo, error) { return f.devices, nil }
func (f *fakeContext) Close()                         {}

func TestDefaultFormat(t *testing.T) {
	tests := []struct {
		rate int
		want int
	}{
		{22050, 16384},
		{44100, 32768},
		{48000, 32768},
		{11025, 8192},
	}
	for _, tt := range tests {
		f := DefaultFormat(tt.rate)
		if f.BufferFullSamples != tt.want {
			t.Errorf("DefaultFormat(%d).BufferFullSamples = %d, want %d", tt.rate, f.BufferFullSamples, tt.want)
		}
		if f.Channels != 2 || f.SampleBits != 16 {
			t.Errorf("DefaultFormat(%d) = %+v", tt.rate, f)
		}
	}
}

func TestNewOutputUnknownBackend(t *testing.T) {
	_, err := NewOutput("jack", DefaultFormat(22050), nil)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestManualOutput(t *testing.T) {
	o := NewManualOutput(testFormat())
	f, err := o.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if f.BufferSamples() != 16 {
		t.Fatalf("BufferSamples = %d, want 16", f.BufferSamples())
	}
	if o.PlayCursor() != 0 {
		t.Errorf("PlayCursor = %d, want 0", o.PlayCursor())
	}

	o.BeginPainting()
	buf := o.Buffer()
	buf[0] = 7
	o.Submit()

	o.Advance(6)
	if o.PlayCursor() != 6 {
		t.Errorf("PlayCursor = %d, want 6", o.PlayCursor())
	}
	o.Advance(12)
	if o.PlayCursor() != 2 {
		t.Errorf("PlayCursor after wrap = %d, want 2", o.PlayCursor())
	}

	o.Shutdown()
	o.Shutdown()
}

func TestOutputReadBeforeInit(t *testing.T) {
	o := NewManualOutput(testFormat())
	if _, err := o.Read(make([]byte, 4)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestFindDevice(t *testing.T) {
	ctx := &fakeContext{devices: []DeviceInfo{
		{ID: "alsa_output.pci", Name: "Built-in Audio Analog Stereo"},
		{ID: "bluez_sink.1", Name: "Sony WH-1000XM4"},
	}}

	tests := []struct {
		query  string
		wantID string
	}{
		{"Sony WH-1000XM4", "bluez_sink.1"},
		{"alsa_output.pci", "alsa_output.pci"},
		{"analog", "alsa_output.pci"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d, err := FindDevice(ctx, tt.query)
			if err != nil {
				t.Fatalf("FindDevice: %v", err)
			}
			if d.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", d.ID, tt.wantID)
			}
		})
	}

	if _, err := FindDevice(ctx, "hdmi"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("err = %v, want ErrDeviceNotFound", err)
	}
}

func TestSelectDeviceSingle(t *testing.T) {
	ctx := &fakeContext{devices: []DeviceInfo{{ID: "a", Name: "Only"}}}
	d, err := SelectDevice(ctx)
	if err != nil || d.ID != "a" {
		t.Fatalf("SelectDevice = %+v, %v", d, err)
	}
	if _, err := SelectDevice(&fakeContext{}); !errors.Is(err, ErrNoDevices) {
		t.Errorf("err = %v, want ErrNoDevices", err)
	}
}

func TestPickerKeys(t *testing.T) {
	p := &picker{devices: make([]DeviceInfo, 3)}
	p.key([]byte{0x1b, '[', 'B'})
	p.key([]byte{'j'})
	p.key([]byte{'j'})
	if p.cursor != 2 {
		t.Errorf("cursor = %d, want 2", p.cursor)
	}
	p.key([]byte{0x1b, '[', 'A'})
	if p.cursor != 1 {
		t.Errorf("cursor = %d, want 1", p.cursor)
	}
	if done, _ := p.key([]byte{13}); !done {
		t.Error("Enter should finish")
	}
	if _, abort := p.key([]byte{3}); !abort {
		t.Error("Ctrl+C should abort")
	}
}

func TestIsBluetooth(t *testing.T) {
	if !IsBluetooth("AirPods Pro") {
		t.Error("AirPods should be bluetooth")
	}
	if IsBluetooth("Built-in Audio Analog Stereo") {
		t.Error("built-in should not be bluetooth")
	}
}
