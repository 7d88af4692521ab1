package facematch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// EuclideanDistance returns the L2 distance between a and b.
// Vectors of different or zero length never compare: the distance is +Inf.
func EuclideanDistance(a, b Descriptor) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}

	dist := math.Sqrt(sum)
	if math.IsNaN(dist) {
		return math.Inf(1)
	}
	return dist
}

// Match compares a stored reference descriptor with a freshly captured one.
// It fails closed: missing or mismatched vectors never match.
func Match(stored, candidate Descriptor, threshold float64) Result {
	dist := EuclideanDistance(stored, candidate)
	return Result{
		Matches:  !math.IsInf(dist, 1) && dist <= threshold,
		Distance: dist,
	}
}

// Validate checks that d has exactly dim finite components.
func (d Descriptor) Validate(dim int) error {
	if len(d) == 0 {
		return ErrMissingDescriptor
	}
	if len(d) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(d), dim)
	}
	for i, v := range d {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrMalformedDescriptor, i)
		}
	}
	return nil
}

// ParseDescriptor decodes a JSON array of numbers into a descriptor of length dim.
// Stringified arrays, nulls and non-numeric elements are rejected.
func ParseDescriptor(raw json.RawMessage, dim int) (Descriptor, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrMissingDescriptor
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedDescriptor)
	}

	var values []*float64
	if err := json.Unmarshal(trimmed, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}

	desc := make(Descriptor, len(values))
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("%w: component %d is null", ErrMalformedDescriptor, i)
		}
		if math.Abs(*v) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: component %d out of range", ErrMalformedDescriptor, i)
		}
		desc[i] = float32(*v)
	}

	if err := desc.Validate(dim); err != nil {
		return nil, err
	}
	return desc, nil
}
