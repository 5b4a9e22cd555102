// Package ota implements the OTA update state machine: manifest parsing,
// preflight gates, staged download/verify/install, retry backoff, and
// rollback bookkeeping. The actual HTTPS transport is injected by the
// caller (out of scope here); this package owns only the control flow
// around it.
package ota

import "time"

// Status is the update's current stage (ota_status_t).
type Status int

const (
	Idle Status = iota
	Pending
	Downloading
	Verifying
	Installing
	Success
	Failed
	Rollback
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Downloading:
		return "downloading"
	case Verifying:
		return "verifying"
	case Installing:
		return "installing"
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Rollback:
		return "rollback"
	default:
		return "unknown"
	}
}

// ErrorCode classifies why an update failed (ota_error_t).
type ErrorCode int

const (
	ErrNone ErrorCode = iota
	ErrInvalidManifest
	ErrVersionCheck
	ErrRSSITooLow
	ErrDownloadFailed
	ErrHashMismatch
	ErrSignatureInvalid
	ErrLowMemory
	ErrTimeout
	ErrBusy
)

// Manifest is the update trigger payload (ota_manifest_t), parsed from
// JSON. version, url and sha256 are required; min_rssi, rollout_id and
// force are optional. The fields are plain values, not pointers.
type Manifest struct {
	Version   uint32 `json:"version"`
	URL       string `json:"url"`
	SHA256Hex string `json:"sha256"`
	MinRSSI   int    `json:"min_rssi"`
	RolloutID string `json:"rollout_id,omitempty"`
	Force     bool   `json:"force,omitempty"`
}

// Progress is a snapshot of the in-flight (or most recent) update
// (ota_progress_t).
type Progress struct {
	Status          Status
	Error           ErrorCode
	ErrorMsg        string
	TargetVersion   uint32
	BytesDownloaded int64
	TotalBytes      int64
	ProgressPercent int
	RetryCount      int
	RolloutID       string
}

// Config mirrors ota_config_t.
type Config struct {
	AutoReboot        bool
	RebootDelay       time.Duration
	VerifySignature   bool
	CheckRollback     bool
	MinRSSIOverride   *int // nil means "use the manifest's min_rssi"
}

// DefaultConfig returns OTA_CONFIG_DEFAULT()'s values.
func DefaultConfig() Config {
	return Config{
		AutoReboot:      true,
		RebootDelay:     5 * time.Second,
		VerifySignature: true,
		CheckRollback:   true,
	}
}

// Event identifies a transition the Manager reports through OnEvent.
type Event int

const (
	EventTriggered Event = iota
	EventDownloadStart
	EventDownloadComplete
	EventVerifyStart
	EventVerifyComplete
	EventInstallStart
	EventInstallComplete
	EventSuccess
	EventFailed
	EventRebootPending
	EventRollback
)

// EventFunc receives state-machine transitions as they happen.
type EventFunc func(event Event, progress Progress)

// Stats mirrors ota_stats_t.
type Stats struct {
	UpdatesAttempted     int64
	UpdatesSuccessful    int64
	UpdatesFailed        int64
	Rollbacks            int64
	LastUpdateVersion    uint32
	TotalBytesDownloaded int64
}

// RetryIntervals is the fixed backoff table (OTA_RETRY_INTERVAL_1/2/3).
var RetryIntervals = [3]time.Duration{
	60 * time.Second,
	5 * time.Minute,
	30 * time.Minute,
}

// MaxRetries is the number of retries before giving up (OTA_MAX_RETRIES).
const MaxRetries = 3

// MinFreeHeapBytes is the minimum free memory required to attempt an
// install (OTA_MIN_FREE_HEAP).
const MinFreeHeapBytes = 64 * 1024
