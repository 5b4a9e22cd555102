package tracker

// Config holds the tuning parameters for the filter bank, association gate,
// and lifecycle thresholds. Field names and defaults follow spec §4.6.
type Config struct {
	ConfirmThreshold       int // consecutive hits to promote Tentative -> Confirmed
	TentativeDrop          int // consecutive misses that retire a Tentative track immediately
	OcclusionTimeoutFrames int // consecutive misses that retire an Occluded track

	BaseGateMm    float64 // base association gate radius, millimetres
	MaxGateMm     float64 // hard cap on the speed-scaled gate
	GateSpeedGain float64 // mm of extra gate per m/s of track speed

	DtSeconds float64 // nominal frame period used by the constant-velocity model

	ProcessNoisePos float64 // q_p, mm
	ProcessNoiseVel float64 // q_v, mm/s
	MeasurementNoise float64 // r, mm

	MovingThresholdCmS float64 // used by callers classifying has_moving, not by the tracker itself
}

// DefaultConfig returns the production-default tracker parameters from
// spec §3/§4.6.
func DefaultConfig() Config {
	return Config{
		ConfirmThreshold:       2,
		TentativeDrop:          3,
		OcclusionTimeoutFrames: 66,

		BaseGateMm:    600,
		MaxGateMm:     1000,
		GateSpeedGain: 100,

		DtSeconds: 0.030,

		ProcessNoisePos:  50,
		ProcessNoiseVel:  200,
		MeasurementNoise: 100,

		MovingThresholdCmS: 10,
	}
}

// initialCovariance returns the P matrix a freshly spawned track starts
// with, per spec §4.6: diag(1000, 1000, 10000, 10000).
func initialCovariance() [16]float64 {
	return [16]float64{
		1000, 0, 0, 0,
		0, 1000, 0, 0,
		0, 0, 10000, 0,
		0, 0, 0, 10000,
	}
}
