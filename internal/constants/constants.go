// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// HTTP request constants
const (
	// MaxRequestBodySize is the maximum accepted JSON body size in bytes.
	// A 128-dimensional descriptor encodes to a few kilobytes.
	MaxRequestBodySize = 64 << 10

	// RequestTimeout bounds every non-streaming request
	RequestTimeout = 30 * time.Second
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100

	// SSEKeepAliveInterval is how often an idle event stream sends a comment line
	SSEKeepAliveInterval = 25 * time.Second
)

// History constants
const (
	// DefaultHistoryLimit is the number of records returned by the history endpoint
	DefaultHistoryLimit = 30

	// MaxHistoryLimit caps the limit query parameter of the history endpoint
	MaxHistoryLimit = 366
)

// Seeding constants
const (
	// SeedWorkers is the number of parallel workers used by the seed command
	SeedWorkers = 4
)
