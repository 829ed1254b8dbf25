package capture

import "math"

// DefaultAlpha is the complementary filter blend: the share of the estimate
// carried forward by gyro integration, with the remainder pulled toward the
// accelerometer's gravity reference.
const DefaultAlpha = 0.98

// OrientationFilter fuses gyro rates with accelerometer gravity into a
// roll/pitch/yaw estimate in degrees. Yaw is gyro-integrated only and drifts;
// there is no periodic re-zeroing. Reset is the single correction hook,
// invoked by inertial calibration.
//
// The filter is owned by whichever source feeds it; it does not lock.
type OrientationFilter struct {
	alpha float64
	roll  float64
	pitch float64
	yaw   float64
}

// NewOrientationFilter returns a filter with the given blend constant.
// Values outside (0, 1) fall back to the default.
func NewOrientationFilter(alpha float64) *OrientationFilter {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return &OrientationFilter{alpha: alpha}
}

// Update advances the estimate by one sample. accel is in g, gyro in deg/s,
// dt in seconds. Returns roll, pitch, yaw in degrees.
func (f *OrientationFilter) Update(accel, gyro [3]float64, dt float64) [3]float64 {
	accelRoll := math.Atan2(accel[1], accel[2]) * 180 / math.Pi
	accelPitch := math.Atan2(accel[0], math.Sqrt(accel[1]*accel[1]+accel[2]*accel[2])) * 180 / math.Pi

	f.roll = f.alpha*(f.roll+gyro[0]*dt) + (1-f.alpha)*accelRoll
	f.pitch = f.alpha*(f.pitch+gyro[1]*dt) + (1-f.alpha)*accelPitch
	f.yaw += gyro[2] * dt

	return [3]float64{f.roll, f.pitch, f.yaw}
}

// Orientation returns the current estimate without advancing it.
func (f *OrientationFilter) Orientation() [3]float64 {
	return [3]float64{f.roll, f.pitch, f.yaw}
}

// Reset zeroes the estimate. Called when the glove is recalibrated or the
// device resets.
func (f *OrientationFilter) Reset() {
	f.roll, f.pitch, f.yaw = 0, 0, 0
}
