package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opticworks/rs-1/internal/ota"
	"github.com/opticworks/rs-1/internal/radaringest"
	"github.com/opticworks/rs-1/internal/security"
	"github.com/opticworks/rs-1/internal/smoother"
	"github.com/opticworks/rs-1/internal/tracker"
	"github.com/opticworks/rs-1/internal/zoneengine"
)

// DefaultConfigPath is the path to the tuning defaults file. Fields it
// leaves unset keep the defaults from each component's DefaultConfig().
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the tracker, zone
// engine, presence smoother, radar ingest, security, and OTA modules.
// Every field is optional: a field omitted from the JSON falls back to
// the owning component's own DefaultConfig, so partial overrides are
// always safe to ship.
type TuningConfig struct {
	// Tracker params (spec §4.6)
	ConfirmThreshold       *int     `json:"confirm_threshold,omitempty"`
	TentativeDrop          *int     `json:"tentative_drop,omitempty"`
	OcclusionTimeoutFrames *int     `json:"occlusion_timeout_frames,omitempty"`
	BaseGateMm             *float64 `json:"base_gate_mm,omitempty"`
	MaxGateMm              *float64 `json:"max_gate_mm,omitempty"`
	GateSpeedGain          *float64 `json:"gate_speed_gain,omitempty"`
	DtSeconds              *float64 `json:"dt_seconds,omitempty"`
	ProcessNoisePos        *float64 `json:"process_noise_pos,omitempty"`
	ProcessNoiseVel        *float64 `json:"process_noise_vel,omitempty"`
	MeasurementNoise       *float64 `json:"measurement_noise,omitempty"`
	MovingThresholdCmS     *float64 `json:"tracker_moving_threshold_cm_s,omitempty"`

	// Zone engine params (spec §4.7)
	ZoneMovingThresholdCmS *int `json:"zone_moving_threshold_cm_s,omitempty"`

	// Presence smoother params (spec §4.8)
	DefaultSensitivity       *int   `json:"default_sensitivity,omitempty"`
	MinHoldMs                *int64 `json:"min_hold_ms,omitempty"`
	MaxHoldMs                *int64 `json:"max_hold_ms,omitempty"`
	UseConfidenceWeighting   *bool  `json:"use_confidence_weighting,omitempty"`
	ConfidenceBoostThreshold *int   `json:"confidence_boost_threshold,omitempty"`

	// Radar ingest params
	MinRangeMm          *int   `json:"min_range_mm,omitempty"`
	MaxRangeMm          *int   `json:"max_range_mm,omitempty"`
	MaxSpeedCmS         *int   `json:"max_speed_cm_s,omitempty"`
	MinEnergy           *int   `json:"min_energy,omitempty"`
	DisconnectTimeoutMs *int64 `json:"disconnect_timeout_ms,omitempty"`

	// Security params
	SessionTimeoutSec *int `json:"session_timeout_sec,omitempty"`

	// OTA params
	OTAAutoReboot      *bool `json:"ota_auto_reboot,omitempty"`
	OTARebootDelaySec  *int  `json:"ota_reboot_delay_sec,omitempty"`
	OTAVerifySignature *bool `json:"ota_verify_signature,omitempty"`
	OTACheckRollback   *bool `json:"ota_check_rollback,omitempty"`
}

// Helper functions to create pointers.
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are structurally sane.
func (c *TuningConfig) Validate() error {
	if c.DtSeconds != nil && *c.DtSeconds <= 0 {
		return fmt.Errorf("dt_seconds must be positive, got %f", *c.DtSeconds)
	}
	if c.BaseGateMm != nil && c.MaxGateMm != nil && *c.MaxGateMm < *c.BaseGateMm {
		return fmt.Errorf("max_gate_mm (%f) must be >= base_gate_mm (%f)", *c.MaxGateMm, *c.BaseGateMm)
	}
	if c.DefaultSensitivity != nil && (*c.DefaultSensitivity < 0 || *c.DefaultSensitivity > 100) {
		return fmt.Errorf("default_sensitivity must be 0-100, got %d", *c.DefaultSensitivity)
	}
	if c.MinHoldMs != nil && *c.MinHoldMs < 0 {
		return fmt.Errorf("min_hold_ms must be non-negative, got %d", *c.MinHoldMs)
	}
	if c.MaxHoldMs != nil && c.MinHoldMs != nil && *c.MaxHoldMs < *c.MinHoldMs {
		return fmt.Errorf("max_hold_ms (%d) must be >= min_hold_ms (%d)", *c.MaxHoldMs, *c.MinHoldMs)
	}
	if c.MinRangeMm != nil && c.MaxRangeMm != nil && *c.MinRangeMm > *c.MaxRangeMm {
		return fmt.Errorf("min_range_mm (%d) must be <= max_range_mm (%d)", *c.MinRangeMm, *c.MaxRangeMm)
	}
	if c.SessionTimeoutSec != nil && *c.SessionTimeoutSec <= 0 {
		return fmt.Errorf("session_timeout_sec must be positive, got %d", *c.SessionTimeoutSec)
	}
	return nil
}

// ApplyTracker overlays any set fields onto tracker.DefaultConfig().
func (c *TuningConfig) ApplyTracker() tracker.Config {
	cfg := tracker.DefaultConfig()
	if c.ConfirmThreshold != nil {
		cfg.ConfirmThreshold = *c.ConfirmThreshold
	}
	if c.TentativeDrop != nil {
		cfg.TentativeDrop = *c.TentativeDrop
	}
	if c.OcclusionTimeoutFrames != nil {
		cfg.OcclusionTimeoutFrames = *c.OcclusionTimeoutFrames
	}
	if c.BaseGateMm != nil {
		cfg.BaseGateMm = *c.BaseGateMm
	}
	if c.MaxGateMm != nil {
		cfg.MaxGateMm = *c.MaxGateMm
	}
	if c.GateSpeedGain != nil {
		cfg.GateSpeedGain = *c.GateSpeedGain
	}
	if c.DtSeconds != nil {
		cfg.DtSeconds = *c.DtSeconds
	}
	if c.ProcessNoisePos != nil {
		cfg.ProcessNoisePos = *c.ProcessNoisePos
	}
	if c.ProcessNoiseVel != nil {
		cfg.ProcessNoiseVel = *c.ProcessNoiseVel
	}
	if c.MeasurementNoise != nil {
		cfg.MeasurementNoise = *c.MeasurementNoise
	}
	if c.MovingThresholdCmS != nil {
		cfg.MovingThresholdCmS = *c.MovingThresholdCmS
	}
	return cfg
}

// ApplyZoneEngine overlays any set fields onto zoneengine.DefaultConfig().
func (c *TuningConfig) ApplyZoneEngine() zoneengine.Config {
	cfg := zoneengine.DefaultConfig()
	if c.ZoneMovingThresholdCmS != nil {
		cfg.MovingThresholdCmS = *c.ZoneMovingThresholdCmS
	}
	return cfg
}

// ApplySmoother overlays any set fields onto smoother.DefaultConfig().
func (c *TuningConfig) ApplySmoother() smoother.Config {
	cfg := smoother.DefaultConfig()
	if c.DefaultSensitivity != nil {
		cfg.DefaultSensitivity = *c.DefaultSensitivity
	}
	if c.MinHoldMs != nil {
		cfg.MinHoldMs = *c.MinHoldMs
	}
	if c.MaxHoldMs != nil {
		cfg.MaxHoldMs = *c.MaxHoldMs
	}
	if c.UseConfidenceWeighting != nil {
		cfg.UseConfidenceWeighting = *c.UseConfidenceWeighting
	}
	if c.ConfidenceBoostThreshold != nil {
		cfg.ConfidenceBoostThreshold = *c.ConfidenceBoostThreshold
	}
	return cfg
}

// ApplyRadarIngest overlays any set fields onto radaringest.DefaultConfig().
func (c *TuningConfig) ApplyRadarIngest() radaringest.Config {
	cfg := radaringest.DefaultConfig()
	if c.MinRangeMm != nil {
		cfg.MinRangeMm = *c.MinRangeMm
	}
	if c.MaxRangeMm != nil {
		cfg.MaxRangeMm = *c.MaxRangeMm
	}
	if c.MaxSpeedCmS != nil {
		cfg.MaxSpeedCmS = *c.MaxSpeedCmS
	}
	if c.MinEnergy != nil {
		cfg.MinEnergy = *c.MinEnergy
	}
	if c.DisconnectTimeoutMs != nil {
		cfg.DisconnectTimeoutMs = *c.DisconnectTimeoutMs
	}
	return cfg
}

// ApplySecurity overlays any set fields onto security.DefaultConfig().
func (c *TuningConfig) ApplySecurity() security.Config {
	cfg := security.DefaultConfig()
	if c.SessionTimeoutSec != nil {
		cfg.SessionTimeoutSec = *c.SessionTimeoutSec
	}
	return cfg
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// ApplyOTA overlays any set fields onto ota.DefaultConfig().
func (c *TuningConfig) ApplyOTA() ota.Config {
	cfg := ota.DefaultConfig()
	if c.OTAAutoReboot != nil {
		cfg.AutoReboot = *c.OTAAutoReboot
	}
	if c.OTARebootDelaySec != nil {
		cfg.RebootDelay = secondsToDuration(*c.OTARebootDelaySec)
	}
	if c.OTAVerifySignature != nil {
		cfg.VerifySignature = *c.OTAVerifySignature
	}
	if c.OTACheckRollback != nil {
		cfg.CheckRollback = *c.OTACheckRollback
	}
	return cfg
}
