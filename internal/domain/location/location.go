// Package location models a captured shop position and the contract for
// acquiring one from a positioning source.
package location

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Acquisition failure reasons. All three block submission the same way, but
// the distinguishing reason must be surfaced to the user.
var (
	ErrPermissionDenied = errors.New("location access denied")
	ErrUnavailable      = errors.New("location information unavailable")
	ErrTimeout          = errors.New("location request timed out")
)

// Captured is a single validated coordinate pair with a display address.
// It is either fully present or absent; there is no partial state.
type Captured struct {
	Lat     float64
	Lng     float64
	Address string
}

// New validates coordinate ranges and returns a Captured location.
// An empty address is replaced with a coordinate-based label.
func New(lat, lng float64, address string) (Captured, error) {
	if lat < -90 || lat > 90 {
		return Captured{}, errors.Errorf("latitude %f out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return Captured{}, errors.Errorf("longitude %f out of range [-180, 180]", lng)
	}
	if address == "" {
		address = fmt.Sprintf("Lat: %.6f, Lng: %.6f", lat, lng)
	}
	return Captured{Lat: lat, Lng: lng, Address: address}, nil
}

// Acquirer obtains a single position fix. Acquire blocks until the source
// returns a fix or fails with one of the package's sentinel reasons.
type Acquirer interface {
	Acquire(ctx context.Context) (Captured, error)
}

// Options configures acquisition. The service uses DefaultOptions and does
// not alter them per call.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxCachedAge time.Duration
}

// DefaultOptions mirrors the field app's geolocation settings: high accuracy,
// 10 second timeout, fixes up to 60 seconds old may be reused.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaxCachedAge: 60 * time.Second,
	}
}

// Reason maps an acquisition error to the user-visible message.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Location access denied by user"
	case errors.Is(err, ErrUnavailable):
		return "Location information unavailable"
	case errors.Is(err, ErrTimeout):
		return "Location request timed out"
	default:
		return "Failed to get location"
	}
}
