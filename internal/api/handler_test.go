package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/postofinder/backend-go/internal/models"
	"github.com/bbernstein/postofinder/backend-go/internal/station"
)

func TestSuccess(t *testing.T) {
	got, err := Success(NewStationsResponse(nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "application/json", got.Headers["Content-Type"])
	assert.Equal(t, "*", got.Headers["Access-Control-Allow-Origin"])
	assert.JSONEq(t, `{"stations":[]}`, got.Body)
}

func TestSuccessUnmarshalableBody(t *testing.T) {
	got, err := Success(map[string]interface{}{"bad": make(chan int)})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, got.StatusCode)
	assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, MessageLookupFailed), got.Body)
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		statusCode int
		want       string
	}{
		{
			name:       "bad request",
			message:    "Invalid coordinates",
			statusCode: http.StatusBadRequest,
			want:       `{"error":"Invalid coordinates"}`,
		},
		{
			name:       "internal error",
			message:    MessageDataSourceUnavailable,
			statusCode: http.StatusInternalServerError,
			want:       `{"error":"Fuel station data source is unavailable. Please try again in a few seconds."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Error(tt.message, tt.statusCode)
			require.NoError(t, err)
			assert.Equal(t, tt.statusCode, got.StatusCode)
			assert.JSONEq(t, tt.want, got.Body)
			assert.Equal(t, "application/json", got.Headers["Content-Type"])
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, NewStationsResponse([]models.Station{{
		Coordinate: models.Coordinate{Lat: 1, Lon: 2},
		Name:       "Posto",
		Address:    models.AddressUnavailable,
		FuelTypes:  []string{},
	}}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body StationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Stations, 1)
	assert.Equal(t, "Posto", body.Stations[0].Name)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "Latitude and longitude are required", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Latitude and longitude are required"}`, rec.Body.String())
}

func TestQueryParams(t *testing.T) {
	params := QueryParams(url.Values{"lat": {"1", "2"}, "lng": {"3"}})

	assert.Equal(t, map[string]string{"lat": "1", "lng": "3"}, params)
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]string
		want    models.Coordinate
		wantErr error
	}{
		{
			name:   "valid coordinates",
			params: map[string]string{"lat": "-23.5505", "lng": "-46.6333"},
			want:   models.Coordinate{Lat: -23.5505, Lon: -46.6333},
		},
		{
			name:   "lon alias",
			params: map[string]string{"lat": "10", "lon": "20"},
			want:   models.Coordinate{Lat: 10, Lon: 20},
		},
		{
			name:   "zero is a valid value",
			params: map[string]string{"lat": "0", "lng": "0"},
			want:   models.Coordinate{},
		},
		{
			name:    "missing longitude",
			params:  map[string]string{"lat": "10"},
			wantErr: MissingCoordinatesError{},
		},
		{
			name:    "empty latitude",
			params:  map[string]string{"lat": "", "lng": "10"},
			wantErr: MissingCoordinatesError{},
		},
		{
			name:    "no params",
			params:  nil,
			wantErr: MissingCoordinatesError{},
		},
		{
			name:    "malformed latitude",
			params:  map[string]string{"lat": "north", "lng": "10"},
			wantErr: InvalidCoordinatesError{},
		},
		{
			name:    "latitude out of range",
			params:  map[string]string{"lat": "91", "lng": "10"},
			wantErr: InvalidCoordinatesError{},
		},
		{
			name:    "longitude out of range",
			params:  map[string]string{"lat": "10", "lng": "-181"},
			wantErr: InvalidCoordinatesError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCoordinates(tt.params)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err)
				assert.True(t, IsInputError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRadius(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]string
		want    float64
		wantErr bool
	}{
		{"default", map[string]string{}, 5000, false},
		{"custom", map[string]string{"radius": "1200"}, 1200, false},
		{"maximum", map[string]string{"radius": "50000"}, 50000, false},
		{"too large", map[string]string{"radius": "50001"}, 0, true},
		{"zero", map[string]string{"radius": "0"}, 0, true},
		{"not a number", map[string]string{"radius": "wide"}, 0, true},
		{"NaN", map[string]string{"radius": "NaN"}, 0, true},
		{"infinite", map[string]string{"radius": "+Inf"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRadius(tt.params, 5000)
			if tt.wantErr {
				assert.ErrorIs(t, err, InvalidRadiusError{})
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupError(t *testing.T) {
	status, message := LookupError(&station.UpstreamError{Source: "overpass", StatusCode: http.StatusBadGateway})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, MessageDataSourceUnavailable, message)

	status, message = LookupError(fmt.Errorf("%w: boom", station.ErrStationLookupFailed))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, MessageLookupFailed, message)

	_, message = LookupError(errors.New("anything else"))
	assert.Equal(t, MessageLookupFailed, message)
	assert.False(t, IsInputError(errors.New("anything else")))
}
