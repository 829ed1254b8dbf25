package calib

import "errors"

// InertialBiasSamples is how many still samples the bias routine averages.
const InertialBiasSamples = 100

// ErrNoSamples is returned when a bias computation receives no input.
var ErrNoSamples = errors.New("calib: no samples for inertial bias")

// InertialBias holds the accelerometer and gyroscope offsets measured with
// the glove held still and level. The Z accel offset has gravity (1 g)
// removed so applying the bias leaves gravity visible to the orientation
// filter.
type InertialBias struct {
	Accel [3]float64 `json:"accel"`
	Gyro  [3]float64 `json:"gyro"`
}

// ComputeInertialBias averages raw accel/gyro sample pairs into offsets.
func ComputeInertialBias(accel, gyro [][3]float64) (InertialBias, error) {
	if len(accel) == 0 || len(accel) != len(gyro) {
		return InertialBias{}, ErrNoSamples
	}

	var b InertialBias
	for i := range accel {
		for axis := 0; axis < 3; axis++ {
			b.Accel[axis] += accel[i][axis]
			b.Gyro[axis] += gyro[i][axis]
		}
	}
	n := float64(len(accel))
	for axis := 0; axis < 3; axis++ {
		b.Accel[axis] /= n
		b.Gyro[axis] /= n
	}

	// The glove rests flat during bias capture, so Z carries gravity.
	b.Accel[2] -= 1.0
	return b, nil
}

// Apply subtracts the bias from a raw sample pair.
func (b InertialBias) Apply(accel, gyro [3]float64) (outAccel, outGyro [3]float64) {
	for axis := 0; axis < 3; axis++ {
		outAccel[axis] = accel[axis] - b.Accel[axis]
		outGyro[axis] = gyro[axis] - b.Gyro[axis]
	}
	return outAccel, outGyro
}
