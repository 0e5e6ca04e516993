package snd

import "omegasnd/vec"

const (
	FullVolumeRadius = 80
	AttenuateRate    = 0.0008

	MasterVol = 127
	SphereVol = 90
)

// Spatialize returns the left and right volumes for an emitter heard from
// listener. Inside FullVolumeRadius there is no distance falloff; stereo
// pans on the listener's left axis.
func Spatialize(emitter, listener vec.Vec3, axes vec.Axes, masterVol, channels int) (left, right int) {
	n, d := vec.Sub(emitter, listener).Normalize()
	dist := max(d-FullVolumeRadius, 0) * AttenuateRate

	var lscale, rscale float32
	if channels == 1 {
		lscale, rscale = 1, 1
	} else {
		dot := -vec.Rotate(n, axes)[1]
		rscale = max(0, 0.5*(1+dot))
		lscale = max(0, 0.5*(1-dot))
	}

	master := float32(masterVol)
	right = max(0, int(master*((1-dist)*rscale)))
	left = max(0, int(master*((1-dist)*lscale)))
	return left, right
}
