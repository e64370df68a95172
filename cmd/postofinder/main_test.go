package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/postofinder/backend-go/internal/geo"
	"github.com/bbernstein/postofinder/backend-go/internal/models"
)

func TestPrintStations(t *testing.T) {
	brand := "Ale"
	ref := models.Coordinate{Lat: 0, Lon: 0}
	ranked := geo.RankByDistance([]models.Station{
		{Coordinate: models.Coordinate{Lat: 0, Lon: 0.018}, Name: "Far", Address: "Rua Longe", FuelTypes: []string{}},
		{Coordinate: models.Coordinate{Lat: 0.0045, Lon: 0}, Name: "Near", Address: "Rua Perto", Brand: &brand, FuelTypes: []string{"Diesel", "LPG"}},
	}, &ref)

	var buf bytes.Buffer
	printStations(&buf, ranked, 5000)
	out := buf.String()

	assert.Contains(t, out, "1. Near (Rua Perto)\n   Distance: 500 m\n   Brand: Ale\n   Fuels: Diesel, LPG\n")
	assert.Contains(t, out, "2. Far (Rua Longe)\n   Distance: 2.0 km\n")
	assert.Contains(t, out, "Found 2 stations within 5.0 km")
}

func TestPrintJSON(t *testing.T) {
	d := 0.5
	ranked := []models.RankedStation{{
		Station:    models.Station{Name: "Near", Address: models.AddressUnavailable, FuelTypes: []string{}},
		DistanceKm: &d,
	}}

	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, ranked))

	var body map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	require.Len(t, body["stations"], 1)
	assert.Equal(t, "Near", body["stations"][0]["name"])
	assert.Equal(t, 0.5, body["stations"][0]["distance_km"])
}

func TestNearbyCommand(t *testing.T) {
	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":-23.001,"lon":-46.0,"tags":{"name":"Second","addr:city":"Jundiaí"}},
			{"type":"node","id":2,"lat":-23.0001,"lon":-46.0,"tags":{"name":"First","addr:city":"Jundiaí"}}
		]}`))
	}))
	defer overpass.Close()

	t.Setenv("OVERPASS_URL", overpass.URL)
	t.Setenv("LOG_LEVEL", "disabled")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err := app.Run([]string{"postofinder", "nearby", "--lat", "-23", "--lng", "-46", "--radius", "2000"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "1. First (Jundiaí)")
	assert.Contains(t, out.String(), "2. Second (Jundiaí)")
	assert.Contains(t, out.String(), "Found 2 stations within 2.0 km")
}

func TestNearbyCommandValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"latitude out of range", []string{"postofinder", "nearby", "--lat", "95", "--lng", "0"}, "invalid coordinates"},
		{"radius too large", []string{"postofinder", "nearby", "--lat", "1", "--lng", "1", "--radius", "90000"}, "radius must be"},
		{"NaN radius", []string{"postofinder", "nearby", "--lat", "1", "--lng", "1", "--radius", "NaN"}, "radius must be"},
		{"missing flags", []string{"postofinder", "nearby", "--lat", "1"}, "lng"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Writer = &bytes.Buffer{}
			app.ErrWriter = &bytes.Buffer{}

			err := app.Run(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
