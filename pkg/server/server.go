package server

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/ITestLab/atlassianwebhookapi/pkg/config"
	"github.com/ITestLab/atlassianwebhookapi/pkg/signature"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/heathcliff26/simple-fileserver/pkg/middleware"
)

const ServiceName = "Atlassian Webhook API"

type Server struct {
	addr         string
	ssl          config.SSLConfig
	maxBodyBytes int64
	validator    *signature.Validator
	metrics      *serverMetrics
}

func NewServer(cfg config.Config) *Server {
	maxBodyBytes := cfg.Server.MaxBodyBytes
	if maxBodyBytes <= 0 {
		// Only happens when the config was not created by config.LoadConfig
		maxBodyBytes, _ = config.ParseByteSize(cfg.Server.MaxBodySize)
	}

	return &Server{
		addr:         ":" + strconv.Itoa(cfg.Server.Port),
		ssl:          cfg.Server.SSL,
		maxBodyBytes: maxBodyBytes,
		validator:    signature.NewValidator(cfg.Webhook.Secret),
		metrics:      newServerMetrics(),
	}
}

// Describe the available endpoints
// URL: GET /
func (s *Server) indexHandler(res http.ResponseWriter, _ *http.Request) {
	respondJSON(res, http.StatusOK, IndexResponse{
		Message: ServiceName,
		Endpoints: map[string]string{
			"/headers": "POST/GET - Prints all headers including token headers",
			"/health":  "GET - Health check endpoint",
			"/webhook": "POST - Receives webhooks, requires a valid x-hub-signature header",
			"/metrics": "GET - Prometheus metrics",
		},
		Signature: SignatureInfo{
			Header:     "x-hub-signature",
			Format:     "<algorithm>=<hex-digest>",
			Algorithms: signature.Supported(),
		},
	})
}

// Return a health status of the server
// URL: GET /health
func (s *Server) healthHandler(res http.ResponseWriter, _ *http.Request) {
	respondJSON(res, http.StatusOK, HealthResponse{
		Status:  "ok",
		Message: ServiceName + " is running",
	})
}

// Echo all received headers, no signature is required
// URL: /headers
func (s *Server) headersHandler(res http.ResponseWriter, req *http.Request) {
	headers := collectHeaders(req)
	tokenHeaders := filterTokenHeaders(headers)

	slog.Info("Received headers", slog.String("method", req.Method), slog.Any("names", slices.Sorted(maps.Keys(headers))))
	slog.Debug("Header values", slog.Any("headers", headers))
	if len(tokenHeaders) > 0 {
		slog.Info("Received token headers", slog.Any("names", slices.Sorted(maps.Keys(tokenHeaders))))
	}

	response := HeadersResponse{
		Message:      "Headers received successfully",
		Headers:      headers,
		TokenHeaders: tokenHeaders,
		Timestamp:    timestamp(),
	}
	if decoded := decodeTokens(tokenHeaders); len(decoded) > 0 {
		response.DecodedTokens = decoded
	}

	respondJSON(res, http.StatusOK, response)
}

// Handle incoming webhooks signed with the x-hub-signature header
// URL: POST /webhook
func (s *Server) webhookHandler(res http.ResponseWriter, req *http.Request) {
	// A request without body is signed as the empty message
	rawBody, _ := RawBody(req.Context())

	body, err := parseBody(req.Header.Get("Content-Type"), rawBody)
	if err != nil {
		slog.Warn("Failed to parse webhook body", slog.String("err", err.Error()))
		respondError(res, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := s.validator.ValidateRequest(req, rawBody)
	s.metrics.observeValidation(result)
	if !result.Valid() {
		slog.Warn("Rejected webhook", slog.String("reason", result.Status.String()), slog.String("received", result.Received))
		respondJSON(res, result.StatusCode(), result.Response())
		return
	}

	slog.Info("Received valid webhook", slog.String("algorithm", result.Algorithm), slog.Int("bytes", len(rawBody)))
	respondJSON(res, http.StatusOK, WebhookResponse{
		Message:         "Webhook received and signature validated successfully",
		Body:            body,
		SignatureStatus: "valid",
		Timestamp:       timestamp(),
	})
}

func (s *Server) notFoundHandler(res http.ResponseWriter, _ *http.Request) {
	respondError(res, http.StatusNotFound, "Not found")
}

// Create the http handler with all routes and middlewares
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("GET /{$}", s.indexHandler)
	router.HandleFunc("GET /health", s.healthHandler)
	router.HandleFunc("/headers", s.headersHandler)
	router.HandleFunc("POST /webhook", s.webhookHandler)
	router.Handle("GET /metrics", s.metrics.handler())
	router.HandleFunc("/", s.notFoundHandler)

	var handler http.Handler = s.captureRawBody(router)
	handler = chimiddleware.Recoverer(handler)
	handler = chimiddleware.RealIP(handler)
	handler = chimiddleware.RequestID(handler)
	return middleware.Logging(handler)
}

// Starts the server and exits with error if that fails
func (s *Server) Run() error {
	server := http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	var err error
	if s.ssl.Enabled {
		slog.Info("Starting server", slog.String("addr", s.addr), slog.String("sslKey", s.ssl.Key), slog.String("sslCert", s.ssl.Cert))
		err = server.ListenAndServeTLS(s.ssl.Cert, s.ssl.Key)
	} else {
		slog.Info("Starting server", slog.String("addr", s.addr))
		err = server.ListenAndServe()
	}

	// This just means the server was closed after running
	if errors.Is(err, http.ErrServerClosed) {
		slog.Info("Server closed, exiting")
		return nil
	}
	return fmt.Errorf("failed to start server: %w", err)
}
