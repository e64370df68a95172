package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/postofinder/backend-go/internal/config"
	"github.com/bbernstein/postofinder/backend-go/internal/handler"
	"github.com/bbernstein/postofinder/backend-go/internal/station"
)

var (
	lambdaStart     = lambda.Start // Allow mocking of lambda.Start in tests
	finderFactory   = station.FinderFactory(&station.DefaultFinderFactory{})
	stationsHandler *handler.StationsHandler
	setupOnce       sync.Once
)

func init() {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()

		// No scrape endpoint under Lambda, so no metrics.
		stationFinder, err := finderFactory.NewFinder(cfg, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize station finder")
		}

		stationsHandler = handler.NewStationsHandler(stationFinder, cfg.SearchRadius)
	})
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return stationsHandler.HandleRequest(ctx, request)
}

func main() {
	lambdaStart(handleRequest)
}
