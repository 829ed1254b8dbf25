package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/calib"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/store"
)

// Calibration capture pacing. Flex reference points average a second of
// posture data; the inertial bias averages its still-sample count at the
// IMU's nominal rate.
const (
	flexCalibrationSamples = 50
	flexSampleInterval     = 20 * time.Millisecond
	inertialSampleInterval = 10 * time.Millisecond
)

// ErrNoSensorData is returned when calibration runs before the pipeline has
// seen any readings from the required modality.
var ErrNoSensorData = errors.New("app: no sensor data captured yet")

// CalibrateFlex captures one flex reference phase. The operator holds the
// pose ("flat" or "bent") while raw joint codes are averaged from the live
// pipeline, then the profile recomputes, is applied to the link, and is
// persisted. Phases capture independently; the degenerate-span guard keeps
// a half-done calibration usable.
func (a *App) CalibrateFlex(phase string) (*calib.Profile, error) {
	if phase != "flat" && phase != "bent" {
		return nil, fmt.Errorf("app: unknown flex phase %q", phase)
	}

	var sum [sensor.JointCount]float64
	n := 0
	for i := 0; i < flexCalibrationSamples; i++ {
		a.mu.RLock()
		raw, ok := a.lastRaw, a.hasRaw
		a.mu.RUnlock()
		if ok {
			for j := range raw {
				sum[j] += float64(raw[j])
			}
			n++
		}
		time.Sleep(flexSampleInterval)
	}
	if n == 0 {
		return nil, ErrNoSensorData
	}

	var avg [sensor.JointCount]uint16
	for j := range avg {
		avg[j] = uint16(sum[j]/float64(n) + 0.5)
	}

	// The link reads the active profile concurrently, so build a fresh copy
	// and swap it in whole.
	a.mu.RLock()
	p := *a.profile
	a.mu.RUnlock()
	if phase == "flat" {
		p.SetFlat(avg)
	} else {
		p.SetBent(avg)
	}
	if a.link != nil {
		a.link.SetProfile(&p)
	}
	a.mu.Lock()
	a.profile = &p
	a.mu.Unlock()

	if err := a.store.Profiles().Save(store.ProfileFlex, &p); err != nil {
		return nil, fmt.Errorf("persist flex profile: %w", err)
	}
	log.Printf("app: flex %s phase calibrated over %d samples", phase, n)
	a.Announce("calibration saved")

	out := p
	return &out, nil
}

// CalibrateInertial measures the IMU bias with the glove resting flat and
// still, applies it to the link, and persists it. Snapshots carry
// bias-corrected samples, so the measurement yields the residual error and
// folds into the active bias rather than replacing it.
func (a *App) CalibrateInertial() (calib.InertialBias, error) {
	accel := make([][3]float64, 0, calib.InertialBiasSamples)
	gyro := make([][3]float64, 0, calib.InertialBiasSamples)
	for i := 0; i < calib.InertialBiasSamples; i++ {
		a.mu.RLock()
		ac, gy, ok := a.lastAccel, a.lastGyro, a.hasIMU
		a.mu.RUnlock()
		if ok {
			accel = append(accel, ac)
			gyro = append(gyro, gy)
		}
		time.Sleep(inertialSampleInterval)
	}
	if len(accel) == 0 {
		return calib.InertialBias{}, ErrNoSensorData
	}

	residual, err := calib.ComputeInertialBias(accel, gyro)
	if err != nil {
		return calib.InertialBias{}, err
	}

	a.mu.Lock()
	for axis := 0; axis < 3; axis++ {
		a.bias.Accel[axis] += residual.Accel[axis]
		a.bias.Gyro[axis] += residual.Gyro[axis]
	}
	b := a.bias
	a.mu.Unlock()

	// SetBias also resets the orientation filter, so the new offsets take
	// effect from a clean attitude estimate.
	if a.link != nil {
		a.link.SetBias(b)
	}
	if err := a.store.Profiles().Save(store.ProfileInertial, b); err != nil {
		return calib.InertialBias{}, fmt.Errorf("persist inertial bias: %w", err)
	}
	log.Printf("app: inertial bias calibrated over %d samples", len(accel))
	a.Announce("calibration saved")
	return b, nil
}
