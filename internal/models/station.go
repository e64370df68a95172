package models

import "strings"

const (
	// AddressUnavailable marks a station whose address could not be determined.
	AddressUnavailable = "Address unavailable"

	// DefaultStationName is used when no name, brand or operator tag is present.
	DefaultStationName = "Fuel Station"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is within geographic bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

type Station struct {
	Coordinate
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	OpeningHours *string  `json:"opening_hours"`
	Brand        *string  `json:"brand"`
	Operator     *string  `json:"operator"`
	FuelTypes    []string `json:"fuel_types"`
}

// HasAddress is false while the address is still the unavailable sentinel.
func (s Station) HasAddress() bool {
	return s.Address != "" && s.Address != AddressUnavailable
}

// RankedStation pairs a station with its distance from a reference point.
// DistanceKm is nil when no reference point was given.
type RankedStation struct {
	Station
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// StreetLine appends the house number to the street, if both exist.
func StreetLine(street, houseNumber string) string {
	if street == "" {
		return ""
	}
	if houseNumber != "" {
		return street + ", " + houseNumber
	}
	return street
}

// JoinAddress joins the non-empty parts with ", ", falling back to
// AddressUnavailable when nothing is left.
func JoinAddress(parts ...string) string {
	present := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return AddressUnavailable
	}
	return strings.Join(present, ", ")
}
