package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/postofinder/backend-go/internal/api"
	"github.com/bbernstein/postofinder/backend-go/internal/models"
	"github.com/bbernstein/postofinder/backend-go/internal/station"
)

type StationsHandler struct {
	stationFinder models.StationFinder
	defaultRadius float64
}

func NewStationsHandler(finder models.StationFinder, defaultRadius float64) *StationsHandler {
	if defaultRadius <= 0 {
		defaultRadius = station.DefaultRadiusMeters
	}
	return &StationsHandler{
		stationFinder: finder,
		defaultRadius: defaultRadius,
	}
}

// HandleRequest serves GET /stations behind API Gateway.
func (h *StationsHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	status, body := h.lookup(ctx, request.QueryStringParameters)
	if status != http.StatusOK {
		return api.Error(body.(*api.ErrorResponse).Error, status)
	}
	return api.Success(body)
}

// ServeHTTP serves GET /stations for the standalone server.
func (h *StationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, body := h.lookup(r.Context(), api.QueryParams(r.URL.Query()))
	api.WriteJSON(w, status, body)
}

func (h *StationsHandler) lookup(ctx context.Context, params map[string]string) (status int, body interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic in stations handler")
			status, body = http.StatusInternalServerError, api.NewErrorResponse(api.MessageLookupFailed)
		}
	}()

	coord, radius, err := h.parseParams(params)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected stations request")
		return http.StatusBadRequest, api.NewErrorResponse(err.Error())
	}

	stations, err := h.stationFinder.FindStations(ctx, coord, radius)
	if api.IsInputError(err) {
		return http.StatusBadRequest, api.NewErrorResponse(err.Error())
	}
	if err != nil {
		status, message := api.LookupError(err)
		log.Error().
			Err(err).
			Float64("lat", coord.Lat).
			Float64("lon", coord.Lon).
			Msg("Error finding fuel stations")
		return status, api.NewErrorResponse(message)
	}

	return http.StatusOK, api.NewStationsResponse(stations)
}

func (h *StationsHandler) parseParams(params map[string]string) (models.Coordinate, float64, error) {
	coord, err := api.ParseCoordinates(params)
	if err != nil {
		return models.Coordinate{}, 0, err
	}
	radius, err := api.ParseRadius(params, h.defaultRadius)
	if err != nil {
		return models.Coordinate{}, 0, err
	}
	return coord, radius, nil
}
