package domain

import "errors"

// ============================================================================
// Input Errors
// ============================================================================

var (
	ErrMissingAPIKey            = errors.New("platform API key is required (--ROBOFLOW_API_KEY)")
	ErrMissingWorkspace         = errors.New("workspace ID is required")
	ErrMissingProject           = errors.New("project ID is required")
	ErrInvalidVersionNumber     = errors.New("version number must be positive")
	ErrUnsupportedDatasetFormat = errors.New("unsupported dataset format")
	ErrMissingDatasetDir        = errors.New("dataset directory is required")
	ErrMissingOutputDir         = errors.New("output directory is required")
)

// ============================================================================
// Local Filesystem Errors
// ============================================================================

var (
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrEmptyDataset       = errors.New("dataset contains no images")
	ErrUnsafeArchivePath  = errors.New("archive entry escapes destination directory")
)

// ============================================================================
// Remote Platform Errors
// ============================================================================

var (
	ErrRemote            = errors.New("platform request failed")
	ErrMalformedResponse = errors.New("malformed platform response")
	ErrVersionNotReady   = errors.New("dataset version did not finish generating")
	ErrExportNotReady    = errors.New("dataset export did not become available")
)

// ============================================================================
// Detector Errors
// ============================================================================

var (
	ErrDetectorFailed = errors.New("detector worker failed")
	ErrNoResult       = errors.New("detector worker produced no result")
)
