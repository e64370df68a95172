package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/bbernstein/postofinder/backend-go/internal/geo"
	"github.com/bbernstein/postofinder/backend-go/internal/models"
)

func sourceStation(source interface{}) models.Station {
	switch s := source.(type) {
	case models.Station:
		return s
	case *models.Station:
		return *s
	case models.RankedStation:
		return s.Station
	case *models.RankedStation:
		return s.Station
	}
	return models.Station{}
}

func sourceDistance(source interface{}) *float64 {
	switch s := source.(type) {
	case models.RankedStation:
		return s.DistanceKm
	case *models.RankedStation:
		return s.DistanceKm
	}
	return nil
}

func stationField(typ graphql.Output, get func(models.Station) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: typ,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return get(sourceStation(p.Source)), nil
		},
	}
}

func optional(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func stationFields() graphql.Fields {
	return graphql.Fields{
		"lat":          stationField(graphql.NewNonNull(graphql.Float), func(s models.Station) interface{} { return s.Lat }),
		"lon":          stationField(graphql.NewNonNull(graphql.Float), func(s models.Station) interface{} { return s.Lon }),
		"name":         stationField(graphql.NewNonNull(graphql.String), func(s models.Station) interface{} { return s.Name }),
		"address":      stationField(graphql.NewNonNull(graphql.String), func(s models.Station) interface{} { return s.Address }),
		"openingHours": stationField(graphql.String, func(s models.Station) interface{} { return optional(s.OpeningHours) }),
		"brand":        stationField(graphql.String, func(s models.Station) interface{} { return optional(s.Brand) }),
		"operator":     stationField(graphql.String, func(s models.Station) interface{} { return optional(s.Operator) }),
		"fuelTypes": stationField(graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String))), func(s models.Station) interface{} {
			if s.FuelTypes == nil {
				return []string{}
			}
			return s.FuelTypes
		}),
	}
}

func coordinateArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"radius": &graphql.ArgumentConfig{Type: graphql.Float, Description: "Search radius in meters"},
	}
}

func coordinateParams(p graphql.ResolveParams) (float64, float64, *float64) {
	lat, _ := p.Args["lat"].(float64)
	lng, _ := p.Args["lng"].(float64)
	var radius *float64
	if r, ok := p.Args["radius"].(float64); ok {
		radius = &r
	}
	return lat, lng, radius
}

// buildSchema creates the GraphQL schema wired to the resolver.
func buildSchema(resolver *Resolver) (graphql.Schema, error) {
	stationType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Station",
		Fields: stationFields(),
	})

	nearbyFields := stationFields()
	nearbyFields["distanceKm"] = &graphql.Field{
		Type: graphql.Float,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			if d := sourceDistance(p.Source); d != nil {
				return *d, nil
			}
			return nil, nil
		},
	}
	nearbyFields["distanceLabel"] = &graphql.Field{
		Type:        graphql.String,
		Description: "Human readable distance, e.g. 450 m or 12.3 km",
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			if d := sourceDistance(p.Source); d != nil {
				return geo.FormatDistance(*d), nil
			}
			return nil, nil
		},
	}
	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "NearbyStation",
		Fields: nearbyFields,
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"stations": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(stationType))),
				Description: "Fuel stations around a point, in data source order",
				Args:        coordinateArgs(),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat, lng, radius := coordinateParams(p)
					return resolver.Stations(p.Context, lat, lng, radius)
				},
			},
			"nearbyStations": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(nearbyType))),
				Description: "Fuel stations around a point, nearest first",
				Args:        coordinateArgs(),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat, lng, radius := coordinateParams(p)
					return resolver.NearbyStations(p.Context, lat, lng, radius)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}
