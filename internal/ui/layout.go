package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutDetailWidth is the minimum width to show album descriptions.
	LayoutDetailWidth = 120
)

// Fixed rows around the frame: header, command bar, rotation bar.
const chromeRows = 3

// Log view limits.
const (
	// LogTailLines is the number of log lines read per refresh.
	LogTailLines = 500
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// ImageInfoTimeout bounds a frame info request.
	ImageInfoTimeout = 3 * time.Second

	// RetryTimeout bounds a frame retry.
	RetryTimeout = 30 * time.Second
)
