package configstore

import "errors"

var (
	ErrChecksum          = errors.New("configstore: checksum mismatch")
	ErrRecordLength      = errors.New("configstore: record has unexpected length")
	ErrRollbackUnavailable = errors.New("configstore: no previous version to roll back to")
	ErrNotInitialized    = errors.New("configstore: not initialized")
)
