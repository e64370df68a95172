package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/postofinder/backend-go/graph"
	"github.com/bbernstein/postofinder/backend-go/internal/config"
	"github.com/bbernstein/postofinder/backend-go/internal/station"
)

var (
	handler       *graph.Handler
	setupOnce     sync.Once
	finderFactory = station.FinderFactory(&station.DefaultFinderFactory{})
	initHandler   = defaultInitHandler
)

func defaultInitHandler(_ context.Context) (*graph.Handler, error) {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	stationFinder, err := finderFactory.NewFinder(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing station finder: %w", err)
	}

	resolver := &graph.Resolver{
		StationFinder: stationFinder,
		DefaultRadius: cfg.SearchRadius,
	}

	h, err := graph.NewHandler(resolver, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing graphql handler: %w", err)
	}
	return h, nil
}

func handleRequest(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if handler == nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"errors": ["Handler not initialized"]}`,
		}, fmt.Errorf("handler not initialized")
	}
	return handler.HandleRequest(ctx, event)
}

func InitializeService() error { // Return error instead of fatal
	var initError error
	setupOnce.Do(func() {
		if finderFactory == nil {
			finderFactory = &station.DefaultFinderFactory{}
		}
		ctx := context.Background()
		log.Debug().Msg("Initializing GraphQL service...")
		var err error
		handler, err = initHandler(ctx)
		if err != nil {
			initError = fmt.Errorf("failed to initialize handler: %w", err)
			log.Error().Err(err).Msg("Failed to initialize handler")
			return
		}
		log.Debug().Msg("GraphQL service initialized successfully")
	})
	return initError
}

func init() {
	if err := InitializeService(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
}

func main() {
	lambda.Start(handleRequest)
}
