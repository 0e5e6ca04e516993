package snd

import (
	"testing"

	"omegasnd/vec"
)

func TestSpatialize(t *testing.T) {
	tests := []struct {
		name      string
		emitter   vec.Vec3
		master    int
		channels  int
		wantLeft  int
		wantRight int
	}{
		{"at listener stereo", vec.Vec3{0, 0, 0}, MasterVol, 2, 63, 63},
		{"at listener mono", vec.Vec3{0, 0, 0}, MasterVol, 1, 127, 127},
		{"sphere volume", vec.Vec3{0, 0, 0}, SphereVol, 2, 45, 45},
		{"hard right", vec.Vec3{0, -10, 0}, MasterVol, 2, 0, 127},
		{"hard left", vec.Vec3{0, 10, 0}, MasterVol, 2, 127, 0},
		{"ahead", vec.Vec3{50, 0, 0}, MasterVol, 2, 63, 63},
		{"inside full volume radius", vec.Vec3{0, 80, 0}, MasterVol, 2, 127, 0},
		{"attenuated", vec.Vec3{1080, 0, 0}, MasterVol, 2, 12, 12},
		{"out of range", vec.Vec3{5000, 0, 0}, MasterVol, 2, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := Spatialize(tt.emitter, vec.Vec3{}, vec.Identity, tt.master, tt.channels)
			if l != tt.wantLeft || r != tt.wantRight {
				t.Errorf("Spatialize = (%d, %d), want (%d, %d)", l, r, tt.wantLeft, tt.wantRight)
			}
		})
	}
}

func TestSpatializeFollowsAxes(t *testing.T) {
	// listener turned to face +y: its left axis is -x
	axes := vec.Axes{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}}
	l, r := Spatialize(vec.Vec3{10, 0, 0}, vec.Vec3{}, axes, MasterVol, 2)
	if l != 0 || r != 127 {
		t.Errorf("Spatialize = (%d, %d), want (0, 127)", l, r)
	}

	// the listener's own position is subtracted
	l, r = Spatialize(vec.Vec3{100, 110, 0}, vec.Vec3{100, 100, 0}, vec.Identity, MasterVol, 2)
	if l != 127 || r != 0 {
		t.Errorf("offset listener = (%d, %d), want (127, 0)", l, r)
	}
}

func TestSpatializeSymmetry(t *testing.T) {
	emitters := []vec.Vec3{
		{30, 40, 0},
		{-200, 75, 12},
		{500, 333, -40},
		{1, 1, 1},
		{0, 900, 0},
	}
	for _, e := range emitters {
		mirror := vec.Vec3{e[0], -e[1], e[2]}
		l1, r1 := Spatialize(e, vec.Vec3{}, vec.Identity, MasterVol, 2)
		l2, r2 := Spatialize(mirror, vec.Vec3{}, vec.Identity, MasterVol, 2)
		if l1 != r2 || r1 != l2 {
			t.Errorf("%v: (%d, %d) mirrored to (%d, %d)", e, l1, r1, l2, r2)
		}
		if l1+r1 != l2+r2 {
			t.Errorf("%v: sum changed %d -> %d", e, l1+r1, l2+r2)
		}
	}
}

func TestSpatializeMonoCollapse(t *testing.T) {
	for x := float32(-1500); x <= 1500; x += 137 {
		for y := float32(-1500); y <= 1500; y += 211 {
			l, r := Spatialize(vec.Vec3{x, y, 17}, vec.Vec3{}, vec.Identity, MasterVol, 1)
			if l != r {
				t.Fatalf("mono (%v, %v): left %d != right %d", x, y, l, r)
			}
		}
	}
}
