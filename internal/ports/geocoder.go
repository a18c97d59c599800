package ports

import (
	"context"
	"errors"
	"fos-allocation-service/internal/domain"
)

var (
	// ErrAddressNotFound means the geocoder answered but had no match.
	ErrAddressNotFound = errors.New("address not found")
	// ErrGeocoderExhausted means every configured API key was rate limited or failed.
	ErrGeocoderExhausted = errors.New("all geocoding api keys exhausted")
)

// Contract for resolving a postal address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}

// Optional persistent cache of address -> coordinates lookups.
// Address keys are normalized by the caller.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
