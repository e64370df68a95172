package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/postofinder/backend-go/graph"
	"github.com/bbernstein/postofinder/backend-go/internal/config"
	"github.com/bbernstein/postofinder/backend-go/internal/metrics"
	"github.com/bbernstein/postofinder/backend-go/internal/models"
	"github.com/bbernstein/postofinder/backend-go/internal/station"
)

type MockFinder struct {
	mock.Mock
}

func (m *MockFinder) FindStations(ctx context.Context, coord models.Coordinate, radiusMeters float64) ([]models.Station, error) {
	args := m.Called(ctx, coord, radiusMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Station), args.Error(1)
}

type mockFinderFactory struct {
	mock.Mock
}

func (m *mockFinderFactory) NewFinder(cfg *config.Config, mtr *metrics.Metrics) (*station.OverpassStationFinder, error) {
	args := m.Called(cfg, mtr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*station.OverpassStationFinder), args.Error(1)
}

func TestInitHandler(t *testing.T) {
	// Save original handler
	originalHandler := handler
	defer func() {
		handler = originalHandler
	}()

	handler = nil

	h, err := defaultInitHandler(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, h)
}

func TestHandleRequest(t *testing.T) {
	originalHandler := handler
	defer func() {
		handler = originalHandler
	}()

	finder := &MockFinder{}
	finder.On("FindStations", mock.Anything, models.Coordinate{Lat: -8.05, Lon: -34.9}, 5000.0).
		Return([]models.Station{{
			Coordinate: models.Coordinate{Lat: -8.05, Lon: -34.9},
			Name:       "Posto Recife",
			Address:    "Avenida Boa Viagem, Recife",
			FuelTypes:  []string{"CNG"},
		}}, nil)

	var err error
	handler, err = graph.NewHandler(&graph.Resolver{StationFinder: finder}, nil)
	require.NoError(t, err)

	tests := []struct {
		name         string
		request      events.APIGatewayProxyRequest
		expectedCode int
		expectError  bool
	}{
		{
			name: "valid graphql query",
			request: events.APIGatewayProxyRequest{
				HTTPMethod: "POST",
				Body:       `{"query": "{ stations(lat: -8.05, lng: -34.9) { name fuelTypes } }"}`,
			},
			expectedCode: 200,
		},
		{
			name: "invalid method",
			request: events.APIGatewayProxyRequest{
				HTTPMethod: "GET",
			},
			expectedCode: 405,
		},
		{
			name: "invalid json",
			request: events.APIGatewayProxyRequest{
				HTTPMethod: "POST",
				Body:       `invalid json`,
			},
			expectedCode: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := handleRequest(context.Background(), tt.request)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedCode, response.StatusCode)
		})
	}

	response, err := handleRequest(context.Background(), tests[0].request)
	require.NoError(t, err)
	var body struct {
		Data struct {
			Stations []struct {
				Name      string   `json:"name"`
				FuelTypes []string `json:"fuelTypes"`
			} `json:"stations"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(response.Body), &body))
	require.Len(t, body.Data.Stations, 1)
	assert.Equal(t, "Posto Recife", body.Data.Stations[0].Name)
	assert.Equal(t, []string{"CNG"}, body.Data.Stations[0].FuelTypes)
	finder.AssertExpectations(t)
}

func TestHandleRequest_NotInitialized(t *testing.T) {
	originalHandler := handler
	defer func() { handler = originalHandler }()

	handler = nil
	response, err := handleRequest(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "POST"})
	assert.Error(t, err)
	assert.Equal(t, 500, response.StatusCode)
}

func TestInitHandler_ErrorInitializingStationFinder(t *testing.T) {
	originalFinderFactory := finderFactory
	defer func() { finderFactory = originalFinderFactory }()

	mockFinderFactory := &mockFinderFactory{}
	mockFinderFactory.On("NewFinder", mock.Anything, mock.Anything).
		Return(nil, errors.New("mock error initializing station finder"))
	finderFactory = mockFinderFactory

	h, err := defaultInitHandler(context.Background())
	assert.Error(t, err)
	assert.Nil(t, h)
	assert.Contains(t, err.Error(), "initializing station finder")
}

func TestInitialization(t *testing.T) {
	originalHandler := handler
	originalInit := initHandler
	defer func() {
		handler = originalHandler
		initHandler = originalInit
	}()

	handler = nil
	setupOnce = sync.Once{}
	initHandler = func(ctx context.Context) (*graph.Handler, error) {
		return nil, errors.New("mock error initializing handler")
	}

	err := InitializeService()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mock error initializing handler")
	assert.Nil(t, handler)
}
