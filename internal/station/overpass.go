package station

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bbernstein/postofinder/backend-go/internal/config"
	"github.com/bbernstein/postofinder/backend-go/internal/geocode"
	"github.com/bbernstein/postofinder/backend-go/internal/metrics"
	"github.com/bbernstein/postofinder/backend-go/internal/models"
	"github.com/bbernstein/postofinder/backend-go/pkg/http/client"
)

const (
	MaxResults          = 20
	DefaultRadiusMeters = 5000.0

	overpassSource = "overpass"
)

type FinderFactory interface {
	NewFinder(cfg *config.Config, m *metrics.Metrics) (*OverpassStationFinder, error)
}

type DefaultFinderFactory struct{}

// NewFinder wires HTTP clients for both upstreams from cfg.
func (f *DefaultFinderFactory) NewFinder(cfg *config.Config, m *metrics.Metrics) (*OverpassStationFinder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	overpassClient := client.New(client.Options{
		BaseURL:   cfg.OverpassURL,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
	})
	nominatimClient := client.New(client.Options{
		BaseURL:   cfg.NominatimURL,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
	})

	resolver := geocode.NewNominatimResolver(nominatimClient,
		geocode.WithRateLimit(cfg.NominatimRateLimit),
		geocode.WithMetrics(m),
	)

	return NewOverpassStationFinder(overpassClient, resolver,
		WithEnrichTimeout(cfg.EnrichTimeout),
		WithEnrichConcurrency(cfg.EnrichConcurrency),
		WithMetrics(m),
	), nil
}

// OverpassStationFinder finds fuel stations through the Overpass API and fills
// in missing addresses with an AddressResolver.
type OverpassStationFinder struct {
	httpClient        client.Interface
	resolver          models.AddressResolver
	metrics           *metrics.Metrics
	enrichTimeout     time.Duration
	enrichConcurrency int
}

var _ models.StationFinder = (*OverpassStationFinder)(nil)

type FinderOption func(*OverpassStationFinder)

func WithEnrichTimeout(timeout time.Duration) FinderOption {
	return func(f *OverpassStationFinder) {
		f.enrichTimeout = timeout
	}
}

func WithEnrichConcurrency(n int) FinderOption {
	return func(f *OverpassStationFinder) {
		f.enrichConcurrency = n
	}
}

func WithMetrics(m *metrics.Metrics) FinderOption {
	return func(f *OverpassStationFinder) {
		f.metrics = m
	}
}

// NewOverpassStationFinder expects httpClient to be rooted at the interpreter
// endpoint. A nil resolver disables address enrichment.
func NewOverpassStationFinder(httpClient client.Interface, resolver models.AddressResolver, opts ...FinderOption) *OverpassStationFinder {
	f := &OverpassStationFinder{
		httpClient:        httpClient,
		resolver:          resolver,
		enrichTimeout:     5 * time.Second,
		enrichConcurrency: config.DefaultEnrichConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.enrichConcurrency < 1 {
		f.enrichConcurrency = 1
	}
	return f
}

type overpassPoint struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type overpassElement struct {
	Type   string         `json:"type"`
	ID     int64          `json:"id"`
	Lat    *float64       `json:"lat"`
	Lon    *float64       `json:"lon"`
	Center *overpassPoint `json:"center"`
	Tags   Tags           `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

func (f *OverpassStationFinder) FindStations(ctx context.Context, coord models.Coordinate, radiusMeters float64) (stations []models.Station, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic while finding stations")
			stations = nil
			err = fmt.Errorf("%w: %v", ErrStationLookupFailed, r)
		}
	}()

	if math.IsNaN(radiusMeters) || radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}

	elements, err := f.queryElements(ctx, coord, radiusMeters)
	if err != nil {
		return nil, err
	}

	stations = make([]models.Station, 0, len(elements))
	for _, el := range elements {
		point, ok := el.representativePoint()
		if !ok {
			log.Trace().Str("type", el.Type).Int64("id", el.ID).Msg("Skipping element without coordinates")
			continue
		}
		stations = append(stations, NewStation(point, el.Tags))
	}

	// Only the returned stations are worth a reverse geocoding call.
	if len(stations) > MaxResults {
		stations = stations[:MaxResults]
	}

	f.enrichAddresses(ctx, stations)
	f.metrics.ObserveStations(len(stations))

	log.Debug().
		Float64("lat", coord.Lat).
		Float64("lon", coord.Lon).
		Float64("radius", radiusMeters).
		Int("elements", len(elements)).
		Int("stations", len(stations)).
		Msg("Found fuel stations")

	return stations, nil
}

func buildQuery(coord models.Coordinate, radiusMeters float64) string {
	around := fmt.Sprintf("(around:%s,%s,%s)",
		strconv.FormatFloat(radiusMeters, 'f', -1, 64),
		strconv.FormatFloat(coord.Lat, 'f', -1, 64),
		strconv.FormatFloat(coord.Lon, 'f', -1, 64),
	)
	return "[out:json][timeout:25];\n(\n" +
		"  node[\"amenity\"=\"fuel\"]" + around + ";\n" +
		"  way[\"amenity\"=\"fuel\"]" + around + ";\n" +
		"  relation[\"amenity\"=\"fuel\"]" + around + ";\n" +
		");\nout center meta;"
}

func (f *OverpassStationFinder) queryElements(ctx context.Context, coord models.Coordinate, radiusMeters float64) ([]overpassElement, error) {
	form := url.Values{}
	form.Set("data", buildQuery(coord, radiusMeters))

	started := time.Now()
	resp, err := f.httpClient.PostForm(ctx, "", form)
	if err == nil && !resp.OK() {
		err = &UpstreamError{Source: overpassSource, StatusCode: resp.StatusCode}
	} else if err != nil {
		err = &UpstreamError{Source: overpassSource, Err: err}
	}
	f.metrics.ObserveUpstream(metrics.UpstreamOverpass, started, err)
	if err != nil {
		log.Error().Err(err).Msg("Overpass request failed")
		return nil, err
	}

	var data overpassResponse
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		log.Error().Err(err).Msg("Failed to decode Overpass response")
		return nil, fmt.Errorf("%w: decoding overpass response: %w", ErrStationLookupFailed, err)
	}

	return data.Elements, nil
}

// representativePoint uses the element's own position, falling back to the
// center computed for ways and relations. Zero counts as missing.
func (el overpassElement) representativePoint() (models.Coordinate, bool) {
	var centerLat, centerLon *float64
	if el.Center != nil {
		centerLat, centerLon = el.Center.Lat, el.Center.Lon
	}

	lat, okLat := firstNonZero(el.Lat, centerLat)
	lon, okLon := firstNonZero(el.Lon, centerLon)
	if !okLat || !okLon {
		return models.Coordinate{}, false
	}
	return models.Coordinate{Lat: lat, Lon: lon}, true
}

func firstNonZero(values ...*float64) (float64, bool) {
	for _, v := range values {
		if v != nil && *v != 0 {
			return *v, true
		}
	}
	return 0, false
}

// enrichAddresses resolves every missing address in parallel and waits for all
// of them. Each task only writes its own slot, and failures leave the station
// as it was.
func (f *OverpassStationFinder) enrichAddresses(ctx context.Context, stations []models.Station) {
	if f.resolver == nil {
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(f.enrichConcurrency)

	for i := range stations {
		if stations[i].HasAddress() {
			continue
		}
		i := i
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Warn().Interface("panic", r).Int("index", i).Msg("Recovered from panic while resolving address")
				}
			}()

			taskCtx, cancel := context.WithTimeout(ctx, f.enrichTimeout)
			defer cancel()

			current := stations[i].Address
			stations[i].Address = f.resolver.ResolveAddress(taskCtx, stations[i].Coordinate, current)
			return nil
		})
	}

	_ = g.Wait()
}
