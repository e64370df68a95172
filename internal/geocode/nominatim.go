package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/bbernstein/postofinder/backend-go/internal/metrics"
	"github.com/bbernstein/postofinder/backend-go/internal/models"
	"github.com/bbernstein/postofinder/backend-go/pkg/http/client"
)

var ErrReverseGeocodeStatus = errors.New("reverse geocoding returned non-success status")

// NominatimResolver looks up street addresses through the Nominatim
// reverse geocoding endpoint.
type NominatimResolver struct {
	httpClient client.Interface
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
}

var _ models.AddressResolver = (*NominatimResolver)(nil)

type Option func(*NominatimResolver)

// WithRateLimit caps outbound requests per second. Zero or less disables it.
func WithRateLimit(perSecond float64) Option {
	return func(r *NominatimResolver) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *NominatimResolver) {
		r.metrics = m
	}
}

// NewNominatimResolver expects httpClient to be rooted at the reverse endpoint.
func NewNominatimResolver(httpClient client.Interface, opts ...Option) *NominatimResolver {
	r := &NominatimResolver{httpClient: httpClient}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type nominatimAddress struct {
	Road          string `json:"road"`
	HouseNumber   string `json:"house_number"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
}

type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

// ResolveAddress never fails. On any lookup error current is returned as is.
func (r *NominatimResolver) ResolveAddress(ctx context.Context, coord models.Coordinate, current string) string {
	address, err := r.Lookup(ctx, coord)
	r.metrics.ObserveEnrichment(err == nil)
	if err != nil {
		log.Warn().
			Err(err).
			Float64("lat", coord.Lat).
			Float64("lon", coord.Lon).
			Msg("Address lookup failed, keeping previous address")
		return current
	}
	return address
}

// Lookup returns the formatted address for coord.
func (r *NominatimResolver) Lookup(ctx context.Context, coord models.Coordinate) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	query.Set("zoom", "18")
	query.Set("addressdetails", "1")

	started := time.Now()
	resp, err := r.httpClient.Get(ctx, "?"+query.Encode())
	if err == nil && !resp.OK() {
		err = fmt.Errorf("%w: %d", ErrReverseGeocodeStatus, resp.StatusCode)
	}
	r.metrics.ObserveUpstream(metrics.UpstreamNominatim, started, err)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding %f,%f: %w", coord.Lat, coord.Lon, err)
	}

	var data nominatimResponse
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return "", fmt.Errorf("decoding reverse geocoding response: %w", err)
	}

	log.Trace().
		Float64("lat", coord.Lat).
		Float64("lon", coord.Lon).
		Str("display_name", data.DisplayName).
		Msg("Reverse geocoding result")

	return formatAddress(data), nil
}

// formatAddress prefers the structured address, then display_name, then the
// unavailable sentinel.
func formatAddress(data nominatimResponse) string {
	a := data.Address
	address := models.JoinAddress(
		models.StreetLine(a.Road, a.HouseNumber),
		firstNonEmpty(a.Neighbourhood, a.Suburb),
		firstNonEmpty(a.City, a.Town, a.Village),
		a.State,
	)
	if address != models.AddressUnavailable {
		return address
	}
	if data.DisplayName != "" {
		return data.DisplayName
	}
	return models.AddressUnavailable
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
