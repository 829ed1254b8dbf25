package api

import (
	"github.com/ayusman/mudra/internal/calib"
	"github.com/ayusman/mudra/internal/feature"
)

// Pipeline is the narrow surface of the running recognition pipeline that the
// API handlers need. The application satisfies it; tests supply fakes. A nil
// Pipeline disables the operations that depend on live glove state.
type Pipeline interface {
	// Status returns the live pipeline counters served at /api/status.
	Status() map[string]interface{}

	// LatestVector returns the most recently extracted feature vector, or
	// false when the pipeline has not processed a snapshot yet.
	LatestVector() (feature.Vector, bool)

	// ReloadVocabulary rebuilds the in-memory template set from the store.
	ReloadVocabulary() error

	// CalibrateFlex captures one flex calibration phase ("flat" or "bent")
	// and returns the resulting profile.
	CalibrateFlex(phase string) (*calib.Profile, error)

	// CalibrateInertial measures the inertial bias with the glove at rest.
	CalibrateInertial() (calib.InertialBias, error)

	// FlexProfile returns the active flex calibration.
	FlexProfile() *calib.Profile

	// InertialBias returns the active inertial bias.
	InertialBias() calib.InertialBias

	// Transcript returns the accumulated transcript text.
	Transcript() string

	// ClearTranscript empties the transcript.
	ClearTranscript()

	// OutputMode returns the current output mode name.
	OutputMode() string

	// SetOutputMode switches the output mode.
	SetOutputMode(mode string) error
}
