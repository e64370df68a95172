package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/postofinder/backend-go/internal/config"
	"github.com/bbernstein/postofinder/backend-go/internal/models"
	"github.com/bbernstein/postofinder/backend-go/internal/station"
)

const (
	MessageDataSourceUnavailable = "Fuel station data source is unavailable. Please try again in a few seconds."
	MessageLookupFailed          = "Error fetching fuel stations. Please try again in a few seconds."
)

type StationsResponse struct {
	Stations []models.Station `json:"stations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewStationsResponse never serializes a nil slice as null.
func NewStationsResponse(stations []models.Station) *StationsResponse {
	if stations == nil {
		stations = []models.Station{}
	}
	return &StationsResponse{Stations: stations}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

var defaultHeaders = map[string]string{
	"Content-Type":                "application/json",
	"Access-Control-Allow-Origin": "*",
}

func headers() map[string]string {
	h := make(map[string]string, len(defaultHeaders))
	for k, v := range defaultHeaders {
		h[k] = v
	}
	return h
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error(MessageLookupFailed, http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers(),
		Body:       string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers(),
		Body:       string(body),
	}, nil
}

// WriteJSON is the net/http counterpart of Success.
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		WriteError(w, MessageLookupFailed, http.StatusInternalServerError)
		return
	}

	for k, v := range defaultHeaders {
		w.Header().Set(k, v)
	}
	w.WriteHeader(statusCode)
	if _, err := w.Write(jsonBody); err != nil {
		log.Debug().Err(err).Msg("Failed to write response body")
	}
}

// WriteError is the net/http counterpart of Error.
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, statusCode, NewErrorResponse(message))
}

// QueryParams flattens url.Values to the first value per key, the shape API
// Gateway hands to Lambda handlers.
func QueryParams(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for k := range values {
		params[k] = values.Get(k)
	}
	return params
}

// Parameter parsing helpers

// ParseCoordinates reads lat and lng (lon is accepted as an alias for lng).
func ParseCoordinates(params map[string]string) (models.Coordinate, error) {
	latStr := strings.TrimSpace(params["lat"])
	lonStr := strings.TrimSpace(params["lng"])
	if lonStr == "" {
		lonStr = strings.TrimSpace(params["lon"])
	}

	if latStr == "" || lonStr == "" {
		return models.Coordinate{}, MissingCoordinatesError{}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.Coordinate{}, InvalidCoordinatesError{}
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.Coordinate{}, InvalidCoordinatesError{}
	}

	coord := models.Coordinate{Lat: lat, Lon: lon}
	if !coord.Valid() {
		return models.Coordinate{}, InvalidCoordinatesError{}
	}

	return coord, nil
}

// ParseRadius returns defaultRadius when no radius parameter is given.
func ParseRadius(params map[string]string, defaultRadius float64) (float64, error) {
	radiusStr := strings.TrimSpace(params["radius"])
	if radiusStr == "" {
		return defaultRadius, nil
	}

	radius, err := strconv.ParseFloat(radiusStr, 64)
	if err != nil || !config.ValidSearchRadius(radius) {
		return 0, InvalidRadiusError{}
	}

	return radius, nil
}

// LookupError maps a station lookup failure to a status and a client-safe
// message.
func LookupError(err error) (int, string) {
	if errors.Is(err, station.ErrDataSourceUnavailable) {
		return http.StatusInternalServerError, MessageDataSourceUnavailable
	}
	return http.StatusInternalServerError, MessageLookupFailed
}

// IsInputError reports whether err was caused by bad request parameters.
func IsInputError(err error) bool {
	var missing MissingCoordinatesError
	var invalid InvalidCoordinatesError
	var radius InvalidRadiusError
	return errors.As(err, &missing) || errors.As(err, &invalid) || errors.As(err, &radius)
}

type MissingCoordinatesError struct{}

func (e MissingCoordinatesError) Error() string {
	return "Latitude and longitude are required"
}

type InvalidCoordinatesError struct{}

func (e InvalidCoordinatesError) Error() string {
	return "Invalid coordinates"
}

type InvalidRadiusError struct{}

func (e InvalidRadiusError) Error() string {
	return "Invalid radius"
}
