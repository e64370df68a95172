package models

import "context"

type StationFinder interface {
	FindStations(ctx context.Context, coord Coordinate, radiusMeters float64) ([]Station, error)
}

// AddressResolver fills in a missing address. Implementations never fail:
// on error they return current unchanged.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, coord Coordinate, current string) string
}
