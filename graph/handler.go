package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog/log"
)

type RequestCreator func(ctx context.Context, method, url string, body *bytes.Buffer) (*http.Request, error)

type Handler struct {
	schema         graphql.Schema
	requestCreator RequestCreator
}

type gqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func defaultRequestCreator(ctx context.Context, method, url string, body *bytes.Buffer) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func NewHandler(resolver *Resolver, requestCreator RequestCreator) (*Handler, error) {
	if requestCreator == nil {
		requestCreator = defaultRequestCreator
	}

	schema, err := buildSchema(resolver)
	if err != nil {
		return nil, fmt.Errorf("building graphql schema: %w", err)
	}

	return &Handler{
		schema:         schema,
		requestCreator: requestCreator,
	}, nil
}

// execute runs a single GraphQL operation.
func (h *Handler) execute(ctx context.Context, req gqlRequest) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req gqlRequest
	switch r.Method {
	case http.MethodGet:
		req.Query = r.URL.Query().Get("query")
		req.OperationName = r.URL.Query().Get("operationName")
		if vars := r.URL.Query().Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid variables"})
				return
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	result := h.execute(r.Context(), req)
	if result.HasErrors() {
		log.Debug().Interface("errors", result.Errors).Msg("GraphQL request returned errors")
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("Failed to write GraphQL response")
	}
}

func (h *Handler) HandleRequest(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if event.HTTPMethod == "" {
		event.HTTPMethod = "POST"
	}
	if event.HTTPMethod != "POST" {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusMethodNotAllowed,
			Body:       "Only POST method is allowed",
		}, nil
	}

	// Create a new request with the proper URL
	req, err := h.requestCreator(ctx, event.HTTPMethod, "http://localhost/graphql", bytes.NewBufferString(event.Body))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create request")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"errors": ["Failed to create request"]}`,
		}, err
	}

	// Add any headers from the event
	for key, value := range event.Headers {
		req.Header.Set(key, value)
	}

	// Create response writer to capture output
	w := &responseWriter{
		headers: make(http.Header),
		body:    &bytes.Buffer{},
		code:    http.StatusOK,
	}

	h.ServeHTTP(w, req)

	return events.APIGatewayProxyResponse{
		StatusCode: w.code,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: w.body.String(),
	}, nil
}

// responseWriter implements http.ResponseWriter
type responseWriter struct {
	headers http.Header
	body    *bytes.Buffer
	code    int
}

func (w *responseWriter) Header() http.Header {
	return w.headers
}

func (w *responseWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.code = statusCode
}
