package ota

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opticworks/rs-1/internal/security"
)

// DownloadFunc fetches the firmware image named by url. The actual HTTPS
// transport is supplied by the caller; this package only drives the state
// machine around it.
type DownloadFunc func(ctx context.Context, url string) ([]byte, error)

// InstallFunc writes a verified firmware image to the inactive partition.
type InstallFunc func(firmware []byte) error

// Manager runs the update state machine: preflight gates, download,
// verify, install, retry-with-backoff, grounded on ota_manager.c's
// ota_task_func and ota_manager_start.
type Manager struct {
	Config   Config
	Verifier *security.Verifier
	Download DownloadFunc
	Install  InstallFunc

	// RSSI reports the current WiFi signal strength in dBm. Defaults to a
	// function returning 0 (i.e. the RSSI gate always passes) when nil.
	RSSI func() int
	// FreeHeapBytes reports currently available memory. Defaults to a
	// function returning a large constant when nil.
	FreeHeapBytes func() uint64

	// Sleep is used for the retry backoff delay; overridable in tests.
	Sleep func(time.Duration)

	CurrentVersion uint32
	OnEvent        EventFunc

	mu         sync.Mutex
	progress   Progress
	abortRequested bool
	retryCount int
	stats      Stats

	rollbackPending bool // true until MarkValid is called after an install
}

// NewManager creates a Manager with the given current firmware version.
func NewManager(currentVersion uint32, cfg Config) *Manager {
	return &Manager{
		Config:         cfg,
		Verifier:       security.NewVerifier(),
		CurrentVersion: currentVersion,
		Sleep:          time.Sleep,
	}
}

// ParseManifest decodes a JSON OTA trigger payload, assigning a random
// rollout ID via github.com/google/uuid if the manifest omits one.
func ParseManifest(jsonPayload []byte) (Manifest, error) {
	var m Manifest
	if err := parseManifestJSON(jsonPayload, &m); err != nil {
		return Manifest{}, err
	}
	if m.RolloutID == "" {
		m.RolloutID = uuid.NewString()
	}
	return m, nil
}

// IsBusy reports whether an update is currently in progress.
func (m *Manager) IsBusy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isBusyLocked()
}

func (m *Manager) isBusyLocked() bool {
	switch m.progress.Status {
	case Downloading, Verifying, Installing, Pending:
		return true
	default:
		return false
	}
}

// IsNewerVersion reports whether version is newer than the running
// firmware.
func (m *Manager) IsNewerVersion(version uint32) bool {
	return version > m.CurrentVersion
}

// IsUpdateAllowed checks both the version comparison and the anti-rollback
// floor (ota_manager_is_update_allowed).
func (m *Manager) IsUpdateAllowed(version uint32) bool {
	if !m.IsNewerVersion(version) {
		return false
	}
	if m.Config.CheckRollback && m.Verifier != nil && version < m.Verifier.MinVersion() {
		return false
	}
	return true
}

// Progress returns a snapshot of the current (or most recently completed)
// update.
func (m *Manager) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// Stats returns the manager's aggregate counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Start validates the manifest against the preflight gates (version check,
// RSSI, free memory) and, if all pass, runs the update to completion
// synchronously. Callers that want async behavior should invoke it from
// their own goroutine — this mirrors the firmware's task-per-update model
// without this package owning goroutine lifecycle policy itself.
func (m *Manager) Start(ctx context.Context, manifest Manifest) error {
	m.mu.Lock()
	if m.isBusyLocked() {
		m.setErrorLocked(ErrBusy, "update already in progress")
		m.mu.Unlock()
		return fmt.Errorf("ota: %w", errBusy)
	}

	m.progress = Progress{Status: Idle, TargetVersion: manifest.Version, RolloutID: manifest.RolloutID}
	m.abortRequested = false
	m.retryCount = 0

	if !manifest.Force && !m.IsNewerVersion(manifest.Version) {
		m.setErrorLocked(ErrVersionCheck, "version check failed")
		m.mu.Unlock()
		return errVersionCheck
	}
	if !m.isAboveRollbackFloorLocked(manifest.Version) {
		m.setErrorLocked(ErrVersionCheck, "below anti-rollback floor")
		m.mu.Unlock()
		return errVersionCheck
	}

	minRSSI := manifest.MinRSSI
	if m.Config.MinRSSIOverride != nil {
		minRSSI = *m.Config.MinRSSIOverride
	}
	if m.currentRSSI() < minRSSI {
		m.setErrorLocked(ErrRSSITooLow, "wifi signal too weak")
		m.mu.Unlock()
		return errRSSITooLow
	}

	if m.currentFreeHeap() < MinFreeHeapBytes {
		m.setErrorLocked(ErrLowMemory, "insufficient memory for OTA")
		m.mu.Unlock()
		return errLowMemory
	}

	m.progress.Status = Pending
	m.stats.UpdatesAttempted++
	m.mu.Unlock()

	m.emit(EventTriggered)
	m.run(ctx, manifest)
	return nil
}

// Abort requests cancellation of the in-progress update. The update
// finishes its current step and then stops rather than being torn down
// mid-step.
func (m *Manager) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isBusyLocked() {
		m.abortRequested = true
	}
}

func (m *Manager) run(ctx context.Context, manifest Manifest) {
	for {
		err := m.attempt(ctx, manifest)

		m.mu.Lock()
		if m.abortRequested {
			m.progress.Status = Idle
			m.mu.Unlock()
			return
		}
		if err == nil {
			m.progress.Status = Success
			m.progress.ProgressPercent = 100
			m.stats.UpdatesSuccessful++
			m.stats.LastUpdateVersion = manifest.Version
			m.mu.Unlock()
			m.emit(EventSuccess)
			if m.Config.AutoReboot {
				m.emit(EventRebootPending)
			}
			return
		}

		retry := m.retryCount < MaxRetries
		if retry {
			m.retryCount++
			m.progress.RetryCount = m.retryCount
			m.progress.Status = Pending
		} else {
			m.progress.Status = Failed
			m.stats.UpdatesFailed++
		}
		m.mu.Unlock()

		if !retry {
			m.emit(EventFailed)
			return
		}

		delay := RetryIntervals[m.retryCount-1]
		if m.Sleep != nil {
			m.Sleep(delay)
		}
	}
}

// attempt runs one download/verify/install cycle.
func (m *Manager) attempt(ctx context.Context, manifest Manifest) error {
	m.setStatus(Downloading)
	m.emit(EventDownloadStart)

	if m.wasAborted() {
		return nil
	}
	fw, err := m.download(ctx, manifest.URL)
	if err != nil {
		m.setError(ErrDownloadFailed, err.Error())
		return fmt.Errorf("ota: download: %w", err)
	}
	m.mu.Lock()
	m.progress.BytesDownloaded = int64(len(fw))
	m.progress.TotalBytes = int64(len(fw))
	m.stats.TotalBytesDownloaded += int64(len(fw))
	m.mu.Unlock()
	m.emit(EventDownloadComplete)

	if m.wasAborted() {
		return nil
	}
	m.setStatus(Verifying)
	m.emit(EventVerifyStart)

	wantHash, err := hex.DecodeString(manifest.SHA256Hex)
	if err != nil || len(wantHash) != sha256.Size {
		m.setError(ErrInvalidManifest, "malformed sha256")
		return fmt.Errorf("ota: %w", errInvalidManifest)
	}
	got := sha256.Sum256(fw)
	if !hashesEqual(got[:], wantHash) {
		m.setError(ErrHashMismatch, "sha256 mismatch")
		return fmt.Errorf("ota: %w", errHashMismatch)
	}

	if m.Config.VerifySignature && m.Verifier != nil {
		if _, err := m.Verifier.Verify(fw); err != nil {
			m.setError(ErrSignatureInvalid, err.Error())
			return fmt.Errorf("ota: verify signature: %w", err)
		}
	}
	m.emit(EventVerifyComplete)

	if m.wasAborted() {
		return nil
	}
	m.setStatus(Installing)
	m.emit(EventInstallStart)

	if m.Install != nil {
		if err := m.Install(fw); err != nil {
			m.setError(ErrDownloadFailed, err.Error())
			return fmt.Errorf("ota: install: %w", err)
		}
	}
	m.mu.Lock()
	m.rollbackPending = true
	m.mu.Unlock()
	m.emit(EventInstallComplete)

	return nil
}

// MarkValid confirms the newly installed firmware booted successfully,
// clearing the pending-rollback flag (ota_manager_mark_valid). Must be
// called once per boot after an update.
func (m *Manager) MarkValid() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbackPending = false
}

// IsRollback reports whether an installed update is still awaiting
// MarkValid (the pending-rollback flag).
func (m *Manager) IsRollback() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbackPending
}

// NotifyRollback records a boot-time rollback (e.g. detected by the boot
// loader reverting to the previous partition), emitting EventRollback.
func (m *Manager) NotifyRollback() {
	m.mu.Lock()
	m.rollbackPending = false
	m.stats.Rollbacks++
	m.progress.Status = Rollback
	m.mu.Unlock()
	m.emit(EventRollback)
}

func (m *Manager) isUpdateAllowedLocked(version uint32) bool {
	if version <= m.CurrentVersion {
		return false
	}
	return m.isAboveRollbackFloorLocked(version)
}

// isAboveRollbackFloorLocked enforces the anti-rollback minimum (preflight
// gate (b)), which a manifest's force flag can never bypass.
func (m *Manager) isAboveRollbackFloorLocked(version uint32) bool {
	if m.Config.CheckRollback && m.Verifier != nil && version < m.Verifier.MinVersion() {
		return false
	}
	return true
}

func (m *Manager) currentRSSI() int {
	if m.RSSI == nil {
		return 0
	}
	return m.RSSI()
}

func (m *Manager) currentFreeHeap() uint64 {
	if m.FreeHeapBytes == nil {
		return MinFreeHeapBytes + 1
	}
	return m.FreeHeapBytes()
}

func (m *Manager) download(ctx context.Context, url string) ([]byte, error) {
	if m.Download == nil {
		return nil, errNoDownloader
	}
	return m.Download(ctx, url)
}

func (m *Manager) wasAborted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.abortRequested
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.progress.Status = s
	m.mu.Unlock()
}

func (m *Manager) setError(code ErrorCode, msg string) {
	m.mu.Lock()
	m.setErrorLocked(code, msg)
	m.mu.Unlock()
}

func (m *Manager) setErrorLocked(code ErrorCode, msg string) {
	m.progress.Error = code
	m.progress.ErrorMsg = msg
}

func (m *Manager) emit(event Event) {
	if m.OnEvent == nil {
		return
	}
	m.OnEvent(event, m.Progress())
}

func hashesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
