package capture

import (
	"math"
	"testing"
)

func TestOrientationFilterAlphaFallback(t *testing.T) {
	for _, bad := range []float64{0, -0.5, 1, 1.5} {
		f := NewOrientationFilter(bad)
		if f.alpha != DefaultAlpha {
			t.Errorf("NewOrientationFilter(%v).alpha = %v, want %v", bad, f.alpha, DefaultAlpha)
		}
	}
	if f := NewOrientationFilter(0.9); f.alpha != 0.9 {
		t.Errorf("alpha = %v, want 0.9", f.alpha)
	}
}

func TestOrientationFilterGyroStep(t *testing.T) {
	f := NewOrientationFilter(0.98)

	// Level gravity keeps the accel reference at zero, so one update is
	// pure scaled integration: 0.98 * 10 deg/s * 0.1 s.
	got := f.Update([3]float64{0, 0, 1}, [3]float64{10, 0, 0}, 0.1)
	if math.Abs(got[0]-0.98) > 1e-9 {
		t.Errorf("roll = %v, want 0.98", got[0])
	}
	if got[1] != 0 || got[2] != 0 {
		t.Errorf("pitch, yaw = %v, %v, want 0, 0", got[1], got[2])
	}
}

func TestOrientationFilterConvergesToGravity(t *testing.T) {
	f := NewOrientationFilter(0.98)

	// Hand held tilted 30 degrees about X, gyro silent. The accel term
	// should pull roll to the reference over repeated samples.
	accel := [3]float64{0, 0.5, math.Sqrt(3) / 2}
	for i := 0; i < 400; i++ {
		f.Update(accel, [3]float64{}, 0.01)
	}

	o := f.Orientation()
	if math.Abs(o[0]-30) > 0.5 {
		t.Errorf("roll = %v, want ~30", o[0])
	}
	if math.Abs(o[1]) > 0.5 {
		t.Errorf("pitch = %v, want ~0", o[1])
	}
	if o[2] != 0 {
		t.Errorf("yaw = %v, want 0 with silent gyro", o[2])
	}
}

func TestOrientationFilterYawIntegration(t *testing.T) {
	f := NewOrientationFilter(0.98)

	for i := 0; i < 100; i++ {
		f.Update([3]float64{0, 0, 1}, [3]float64{0, 0, 45}, 0.01)
	}
	if yaw := f.Orientation()[2]; math.Abs(yaw-45) > 1e-6 {
		t.Errorf("yaw = %v, want 45 after 1s at 45 deg/s", yaw)
	}
}

func TestOrientationFilterReset(t *testing.T) {
	f := NewOrientationFilter(0.98)
	f.Update([3]float64{0, 0.5, 0.8}, [3]float64{10, 20, 30}, 0.1)
	f.Reset()
	if o := f.Orientation(); o != [3]float64{} {
		t.Errorf("orientation after reset = %v, want zeros", o)
	}
}
