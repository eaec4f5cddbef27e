package errors

import (
	"regexp"
	"strings"
)

// MaxLanes bounds the lane count accepted from untrusted input (manifests, API bodies).
// The layout core itself only requires at least one lane.
const MaxLanes = 256

// MaxSpan bounds the main-axis extent of one item, in grid cells.
const MaxSpan = 1 << 16

// ValidateLanes validates a lane count.
// The message mirrors the layout core's construction error.
func ValidateLanes(lanes int) error {
	if lanes < 1 {
		return New(ErrCodeInvalidLaneCount, "invalid layout lanes: %d, lane count must be at least 1", lanes)
	}
	if lanes > MaxLanes {
		return New(ErrCodeInvalidLaneCount, "invalid layout lanes: %d, lane count must be at most %d", lanes, MaxLanes)
	}
	return nil
}

// ValidateSpan validates a span against a lane count.
// cross is the extent along the lane axis and must fit in [1, lanes];
// main is the extent along the scroll axis and must fit in [1, MaxSpan].
func ValidateSpan(cross, main, lanes int) error {
	if cross < 1 || cross > lanes {
		return New(ErrCodeInvalidSpanSize, "invalid item span size: %d, span size must be in the range 1...%d", cross, lanes)
	}
	if main < 1 || main > MaxSpan {
		return New(ErrCodeInvalidSpanSize, "invalid item span size: %d, span size must be in the range 1...%d", main, MaxSpan)
	}
	return nil
}

// ValidateViewport validates viewport dimensions in pixels.
// Zero is allowed for hosts that have not been measured yet.
func ValidateViewport(width, height int) error {
	if width < 0 || height < 0 {
		return New(ErrCodeInvalidViewport, "viewport dimensions must be non-negative, got %dx%d", width, height)
	}
	const maxDimension = 1 << 20
	if width > maxDimension || height > maxDimension {
		return New(ErrCodeInvalidViewport, "viewport too large (max %d pixels per side)", maxDimension)
	}
	return nil
}

// ValidatePadding validates viewport insets.
func ValidatePadding(values ...int) error {
	for _, v := range values {
		if v < 0 {
			return New(ErrCodeInvalidViewport, "padding must be non-negative, got %d", v)
		}
	}
	return nil
}

var anchorIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)

// ValidateAnchorID validates an anchor identifier before it is used as a
// file name or store key.
func ValidateAnchorID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "anchor id cannot be empty")
	}
	if strings.Contains(id, "..") || !anchorIDPattern.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid anchor id: %q", id)
	}
	return nil
}
