package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/sensor"
)

// Webcam capture defaults. Resolution is kept modest: frames are cloned into
// the snapshot history, so every pixel is paid for several times.
const (
	DefaultCameraWidth  = 640
	DefaultCameraHeight = 480
)

// ErrCameraClosed is returned when reading from a camera that is not open.
var ErrCameraClosed = errors.New("capture: camera is not open")

// Camera captures frames from a host webcam via OpenCV.
type Camera struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	seq      uint32
}

// OpenCamera opens the webcam with the given device ID at the default
// resolution.
func OpenCamera(deviceID int) (*Camera, error) {
	cap, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", deviceID, err)
	}

	cap.Set(gocv.VideoCaptureFrameWidth, DefaultCameraWidth)
	cap.Set(gocv.VideoCaptureFrameHeight, DefaultCameraHeight)

	return &Camera{deviceID: deviceID, capture: cap}, nil
}

// CaptureFrame grabs one frame. The caller owns the returned reading and
// must Close it when done.
func (c *Camera) CaptureFrame() (*sensor.FrameReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraClosed
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("capture: read from camera %d failed", c.deviceID)
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("capture: camera returned an empty frame")
	}

	c.seq++
	return &sensor.FrameReading{
		Mat:       &mat,
		Width:     mat.Cols(),
		Height:    mat.Rows(),
		Format:    sensor.FormatBGR,
		Seq:       c.seq,
		Timestamp: time.Now(),
	}, nil
}

// Close releases the webcam.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}
