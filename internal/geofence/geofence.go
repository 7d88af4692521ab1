// Package geofence decides whether a GPS reading lies inside a tenant's circular fence.
package geofence

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// ErrInvalidCoordinate is returned for NaN, infinite or out-of-range coordinates.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ErrInvalidRadius is returned for a negative or non-finite fence radius.
var ErrInvalidRadius = errors.New("invalid geofence radius")

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Fence is a circular boundary around a center point.
type Fence struct {
	Center       Point
	RadiusMeters float64
}

// Result is the outcome of a fence check.
type Result struct {
	WithinFence    bool
	DistanceMeters float64
}

// Validate checks that the point is a usable coordinate.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, p.Longitude)
	}
	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h marginally above 1 for antipodal points.
	h = min(h, 1)

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Check reports whether point lies within fence. Invalid input is an error and never
// counts as inside the fence.
func Check(point Point, fence Fence) (Result, error) {
	if err := point.Validate(); err != nil {
		return Result{}, err
	}
	if err := fence.Center.Validate(); err != nil {
		return Result{}, fmt.Errorf("fence center: %w", err)
	}
	if math.IsNaN(fence.RadiusMeters) || math.IsInf(fence.RadiusMeters, 0) || fence.RadiusMeters < 0 {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRadius, fence.RadiusMeters)
	}

	dist := Distance(point, fence.Center)
	return Result{
		WithinFence:    dist <= fence.RadiusMeters,
		DistanceMeters: dist,
	}, nil
}
