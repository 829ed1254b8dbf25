package capture

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/ayusman/mudra/internal/calib"
	"github.com/ayusman/mudra/internal/sensor"
)

// Line records streamed by the glove firmware over USB:
//
//	FLEX,r0,...,r9      raw ADC codes, one per joint
//	IMU,ax,ay,az,gx,gy,gz   accel in g, gyro in deg/s
//	TOUCH,b0,...,b4     pad contact as 0/1
const (
	recordFlex  = "FLEX"
	recordIMU   = "IMU"
	recordTouch = "TOUCH"
)

const edgeQueueDepth = 8

// SerialLink ingests the glove's line protocol from a serial port. A
// background reader parses records into latest-value slots; each Read hands
// a slot's value out once, so the sampler sees ErrNoData between packets.
// Calibration (flex profile, inertial bias) and the orientation filter are
// applied on the way in.
type SerialLink struct {
	port io.ReadWriteCloser

	mu       sync.Mutex
	profile  *calib.Profile
	smoother *calib.Smoother
	bias     calib.InertialBias
	filter   *OrientationFilter
	lastIMU  time.Time

	posture  *sensor.PostureReading
	inertial *sensor.InertialReading
	touch    *sensor.TouchReading
	contacts [sensor.TouchCount]bool

	edges    chan sensor.TouchReading
	closed   atomic.Bool
	badLines atomic.Uint64
}

// OpenSerialLink opens the glove's serial port and starts the reader.
func OpenSerialLink(portName string, baudRate uint, profile *calib.Profile) (*SerialLink, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return nil, fmt.Errorf("open glove link %s: %w", portName, err)
	}

	l := newSerialLink(port, profile)
	go l.run()
	log.Printf("capture: glove link open on %s at %d baud", portName, baudRate)
	return l, nil
}

func newSerialLink(port io.ReadWriteCloser, profile *calib.Profile) *SerialLink {
	if profile == nil {
		profile = calib.DefaultProfile()
	}
	return &SerialLink{
		port:     port,
		profile:  profile,
		smoother: calib.NewSmoother(calib.DefaultSmoothingWindow),
		filter:   NewOrientationFilter(DefaultAlpha),
		edges:    make(chan sensor.TouchReading, edgeQueueDepth),
	}
}

func (l *SerialLink) run() {
	reader := bufio.NewReader(l.port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !l.closed.Load() {
				log.Printf("capture: glove link read error: %v", err)
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := l.handleLine(line); err != nil {
			l.badLines.Add(1)
		}
	}
}

func (l *SerialLink) handleLine(line string) error {
	fields := strings.Split(line, ",")
	now := time.Now()

	switch fields[0] {
	case recordFlex:
		raw, err := parseFlex(fields)
		if err != nil {
			return err
		}
		l.mu.Lock()
		smoothed := l.smoother.Apply(raw)
		l.posture = &sensor.PostureReading{
			Raw:       smoothed,
			Angles:    l.profile.Angles(smoothed),
			Timestamp: now,
		}
		l.mu.Unlock()

	case recordIMU:
		accel, gyro, err := parseIMU(fields)
		if err != nil {
			return err
		}
		l.mu.Lock()
		accel, gyro = l.bias.Apply(accel, gyro)
		dt := 0.0
		if !l.lastIMU.IsZero() {
			dt = now.Sub(l.lastIMU).Seconds()
		}
		l.lastIMU = now
		l.inertial = &sensor.InertialReading{
			Accel:       accel,
			Gyro:        gyro,
			Orientation: l.filter.Update(accel, gyro, dt),
			Timestamp:   now,
		}
		l.mu.Unlock()

	case recordTouch:
		contacts, err := parseTouch(fields)
		if err != nil {
			return err
		}
		reading := sensor.TouchReading{Contacts: contacts, Timestamp: now}
		l.mu.Lock()
		changed := contacts != l.contacts
		l.contacts = contacts
		l.touch = &reading
		l.mu.Unlock()
		if changed {
			select {
			case l.edges <- reading:
			default:
				// Edge queue full; the poll path still delivers the state.
			}
		}

	default:
		return fmt.Errorf("unknown record %q", fields[0])
	}
	return nil
}

// ReadPosture returns the latest unconsumed posture reading.
func (l *SerialLink) ReadPosture() (*sensor.PostureReading, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.posture == nil {
		return nil, ErrNoData
	}
	p := l.posture
	l.posture = nil
	return p, nil
}

// ReadInertial returns the latest unconsumed inertial reading.
func (l *SerialLink) ReadInertial() (*sensor.InertialReading, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inertial == nil {
		return nil, ErrNoData
	}
	r := l.inertial
	l.inertial = nil
	return r, nil
}

// ReadTouch returns the latest unconsumed touch reading.
func (l *SerialLink) ReadTouch() (*sensor.TouchReading, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.touch == nil {
		return nil, ErrNoData
	}
	t := l.touch
	l.touch = nil
	return t, nil
}

// Edges returns the touch transition channel.
func (l *SerialLink) Edges() <-chan sensor.TouchReading {
	return l.edges
}

// SetProfile swaps the flex calibration applied to incoming records.
func (l *SerialLink) SetProfile(p *calib.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profile = p
	l.smoother.Reset()
}

// SetBias swaps the inertial bias and resets the orientation filter, the
// same way the device restarts its estimate after calibration.
func (l *SerialLink) SetBias(b calib.InertialBias) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bias = b
	l.filter.Reset()
	l.lastIMU = time.Time{}
}

// BadLines returns how many malformed records have been skipped.
func (l *SerialLink) BadLines() uint64 {
	return l.badLines.Load()
}

// Close shuts the port down and stops the reader.
func (l *SerialLink) Close() error {
	l.closed.Store(true)
	return l.port.Close()
}

func parseFlex(fields []string) ([sensor.JointCount]uint16, error) {
	var raw [sensor.JointCount]uint16
	if len(fields) != sensor.JointCount+1 {
		return raw, fmt.Errorf("flex record has %d fields, want %d", len(fields), sensor.JointCount+1)
	}
	for i := 0; i < sensor.JointCount; i++ {
		v, err := strconv.ParseUint(fields[i+1], 10, 16)
		if err != nil {
			return raw, fmt.Errorf("flex field %d: %w", i, err)
		}
		raw[i] = uint16(v)
	}
	return raw, nil
}

func parseIMU(fields []string) (accel, gyro [3]float64, err error) {
	if len(fields) != 7 {
		return accel, gyro, fmt.Errorf("imu record has %d fields, want 7", len(fields))
	}
	var vals [6]float64
	for i := 0; i < 6; i++ {
		vals[i], err = strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return accel, gyro, fmt.Errorf("imu field %d: %w", i, err)
		}
	}
	copy(accel[:], vals[:3])
	copy(gyro[:], vals[3:])
	return accel, gyro, nil
}

func parseTouch(fields []string) ([sensor.TouchCount]bool, error) {
	var contacts [sensor.TouchCount]bool
	if len(fields) != sensor.TouchCount+1 {
		return contacts, fmt.Errorf("touch record has %d fields, want %d", len(fields), sensor.TouchCount+1)
	}
	for i := 0; i < sensor.TouchCount; i++ {
		switch fields[i+1] {
		case "0":
		case "1":
			contacts[i] = true
		default:
			return contacts, fmt.Errorf("touch field %d: %q is not 0/1", i, fields[i+1])
		}
	}
	return contacts, nil
}
