// Package config provides configuration types and defaults for localprep.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWidth indicates a responsive width that is zero, negative or duplicated.
	ErrInvalidWidth = errors.New("invalid width")

	// ErrInvalidQuality indicates a raster/WebP quality outside 1-100.
	ErrInvalidQuality = errors.New("quality out of range")

	// ErrInvalidCRF indicates an AV1 CRF value outside the valid 0-63 range.
	ErrInvalidCRF = errors.New("CRF value out of range")

	// ErrInvalidCPUUsed indicates a libaom cpu-used value outside 0-8.
	ErrInvalidCPUUsed = errors.New("cpu-used out of range")

	// ErrInvalidSVTPreset indicates an SVT-AV1 preset outside the valid 0-13 range.
	ErrInvalidSVTPreset = errors.New("SVT-AV1 preset out of range")

	// ErrInvalidPosterFraction indicates a poster capture fraction outside (0, 1).
	ErrInvalidPosterFraction = errors.New("poster fraction out of range")

	// ErrConflictingModes indicates both images-only and videos-only were requested.
	ErrConflictingModes = errors.New("--only-images and --only-videos are mutually exclusive")

	// ErrMissingPath indicates a required path setting is empty.
	ErrMissingPath = errors.New("required path is empty")
)
