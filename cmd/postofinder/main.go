package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/bbernstein/postofinder/backend-go/internal/config"
	"github.com/bbernstein/postofinder/backend-go/internal/geo"
	"github.com/bbernstein/postofinder/backend-go/internal/models"
	"github.com/bbernstein/postofinder/backend-go/internal/station"
)

var finderFactory station.FinderFactory = &station.DefaultFinderFactory{}

func newApp() *cli.App {
	return &cli.App{
		Name:  "postofinder",
		Usage: "Find fuel stations near a location",
		Commands: []*cli.Command{
			nearbyCommand(),
		},
	}
}

func nearbyCommand() *cli.Command {
	return &cli.Command{
		Name:  "nearby",
		Usage: "List fuel stations around a point, nearest first",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:     "lat",
				Usage:    "Latitude of the location",
				Required: true,
			},
			&cli.Float64Flag{
				Name:     "lng",
				Aliases:  []string{"lon"},
				Usage:    "Longitude of the location",
				Required: true,
			},
			&cli.Float64Flag{
				Name:    "radius",
				Aliases: []string{"r"},
				Usage:   "Search radius in meters",
				Value:   station.DefaultRadiusMeters,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result as JSON",
			},
		},
		Action: nearbyAction,
	}
}

func nearbyAction(c *cli.Context) error {
	coord := models.Coordinate{Lat: c.Float64("lat"), Lon: c.Float64("lng")}
	if !coord.Valid() {
		return errors.New("invalid coordinates")
	}

	radius := c.Float64("radius")
	if !config.ValidSearchRadius(radius) {
		return fmt.Errorf("radius must be in (0, %.0f] meters", config.MaxSearchRadius)
	}

	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	finder, err := finderFactory.NewFinder(cfg, nil)
	if err != nil {
		return fmt.Errorf("error initializing station finder: %w", err)
	}

	stations, err := finder.FindStations(c.Context, coord, radius)
	if err != nil {
		return fmt.Errorf("error fetching nearby stations: %w", err)
	}

	ranked := geo.RankByDistance(stations, &coord)
	if c.Bool("json") {
		return printJSON(c.App.Writer, ranked)
	}
	printStations(c.App.Writer, ranked, radius)
	return nil
}

func printJSON(w io.Writer, ranked []models.RankedStation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string][]models.RankedStation{"stations": ranked})
}

func printStations(w io.Writer, ranked []models.RankedStation, radius float64) {
	for i, s := range ranked {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, s.Name, s.Address)
		if s.DistanceKm != nil {
			fmt.Fprintf(w, "   Distance: %s\n", geo.FormatDistance(*s.DistanceKm))
		}
		if s.Brand != nil {
			fmt.Fprintf(w, "   Brand: %s\n", *s.Brand)
		}
		if s.OpeningHours != nil {
			fmt.Fprintf(w, "   Hours: %s\n", *s.OpeningHours)
		}
		if len(s.FuelTypes) > 0 {
			fmt.Fprintf(w, "   Fuels: %s\n", strings.Join(s.FuelTypes, ", "))
		}
		fmt.Fprintf(w, "   Coordinates: %g, %g\n\n", s.Lat, s.Lon)
	}

	fmt.Fprintf(w, "Found %d stations within %s\n", len(ranked), geo.FormatDistance(radius/1000))
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
