// Package facematch compares face descriptors produced by an external recognition model.
// A descriptor is a fixed-length vector; two captures of the same face are close in
// Euclidean space.
package facematch

import "errors"

// DefaultThreshold is the maximum Euclidean distance accepted as the same face.
const DefaultThreshold = 0.7

// DefaultDimension is the length of descriptors produced by the recognition model.
const DefaultDimension = 128

var (
	// ErrMissingDescriptor is returned when no descriptor was supplied.
	ErrMissingDescriptor = errors.New("face descriptor missing")
	// ErrMalformedDescriptor is returned for anything that is not an array of finite numbers.
	ErrMalformedDescriptor = errors.New("face descriptor malformed")
	// ErrDimensionMismatch is returned when a descriptor has the wrong length.
	ErrDimensionMismatch = errors.New("face descriptor has wrong dimension")
)

// Descriptor is a face embedding vector.
type Descriptor []float32

// Result is the outcome of comparing two descriptors.
type Result struct {
	Matches  bool
	Distance float64
}
