package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

type helloResponse struct {
	Message string `json:"message"`
}

var helloBody = helloResponse{Message: "Hello, World!"}

// NewHelloMux serves the single hello world route.
func NewHelloMux(logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		logger.Info("endpoint called", "route", "/")
		writeJSON(w, http.StatusOK, helloBody)
	})
	return WithRequestLogging(logger, mux)
}

// HelloLambda answers the same route behind API Gateway.
func HelloLambda(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := map[string]string{"content-type": "application/json"}
	if req.Path != "/" && req.Path != "" {
		body, _ := json.Marshal(errorResponse{Detail: "Not Found"})
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNotFound, Headers: headers, Body: string(body)}, nil
	}
	if req.HTTPMethod != http.MethodGet {
		body, _ := json.Marshal(errorResponse{Detail: "Method Not Allowed"})
		return events.APIGatewayProxyResponse{StatusCode: http.StatusMethodNotAllowed, Headers: headers, Body: string(body)}, nil
	}

	slog.Info("endpoint called", "route", "/")
	body, err := json.Marshal(helloBody)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
