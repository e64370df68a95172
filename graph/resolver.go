package graph

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/bbernstein/postofinder/backend-go/internal/api"
	"github.com/bbernstein/postofinder/backend-go/internal/config"
	"github.com/bbernstein/postofinder/backend-go/internal/geo"
	"github.com/bbernstein/postofinder/backend-go/internal/models"
	"github.com/bbernstein/postofinder/backend-go/internal/station"
)

type Resolver struct {
	StationFinder models.StationFinder
	DefaultRadius float64
}

// Stations returns stations in upstream order.
func (r *Resolver) Stations(ctx context.Context, lat, lng float64, radius *float64) ([]models.Station, error) {
	coord := models.Coordinate{Lat: lat, Lon: lng}
	if !coord.Valid() {
		return nil, api.InvalidCoordinatesError{}
	}

	searchRadius, err := r.radius(radius)
	if err != nil {
		return nil, err
	}

	stations, err := r.StationFinder.FindStations(ctx, coord, searchRadius)
	if api.IsInputError(err) {
		return nil, err
	}
	if err != nil {
		_, message := api.LookupError(err)
		log.Error().Err(err).Float64("lat", lat).Float64("lon", lng).Msg("GraphQL station lookup failed")
		return nil, errors.New(message)
	}
	if stations == nil {
		stations = []models.Station{}
	}
	return stations, nil
}

// NearbyStations returns the same stations ranked by distance from the query point.
func (r *Resolver) NearbyStations(ctx context.Context, lat, lng float64, radius *float64) ([]models.RankedStation, error) {
	stations, err := r.Stations(ctx, lat, lng, radius)
	if err != nil {
		return nil, err
	}
	return geo.RankByDistance(stations, &models.Coordinate{Lat: lat, Lon: lng}), nil
}

func (r *Resolver) radius(radius *float64) (float64, error) {
	if radius == nil {
		if r.DefaultRadius > 0 {
			return r.DefaultRadius, nil
		}
		return station.DefaultRadiusMeters, nil
	}
	if !config.ValidSearchRadius(*radius) {
		return 0, api.InvalidRadiusError{}
	}
	return *radius, nil
}
