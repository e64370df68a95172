package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/bbernstein/postofinder/backend-go/internal/models"
)

const EarthRadiusKm = 6371.0

// HaversineDistanceKm returns the great-circle distance between two points.
func HaversineDistanceKm(a, b models.Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h just past 1 for antipodal points
	h = math.Min(h, 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// RankByDistance orders stations by distance from reference, nearest first.
// Ties keep their input order. With a nil reference the input order is kept
// and no distances are set.
func RankByDistance(stations []models.Station, reference *models.Coordinate) []models.RankedStation {
	ranked := make([]models.RankedStation, len(stations))
	for i, s := range stations {
		ranked[i] = models.RankedStation{Station: s}
	}
	if reference == nil {
		return ranked
	}

	for i := range ranked {
		d := HaversineDistanceKm(*reference, ranked[i].Coordinate)
		ranked[i].DistanceKm = &d
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].DistanceKm < *ranked[j].DistanceKm
	})

	return ranked
}

// FormatDistance renders "450 m" below one kilometre and "12.3 km" otherwise.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
