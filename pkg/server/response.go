package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ISO-8601 in UTC with milliseconds, e.g. 2024-01-02T15:04:05.000Z
const timestampFormat = "2006-01-02T15:04:05.000Z"

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type IndexResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
	Signature SignatureInfo     `json:"signature"`
}

type SignatureInfo struct {
	Header     string   `json:"header"`
	Format     string   `json:"format"`
	Algorithms []string `json:"algorithms"`
}

type HeadersResponse struct {
	Message       string                  `json:"message"`
	Headers       map[string]string       `json:"headers"`
	TokenHeaders  map[string]string       `json:"tokenHeaders"`
	DecodedTokens map[string]DecodedToken `json:"decodedTokens,omitempty"`
	Timestamp     string                  `json:"timestamp"`
}

type WebhookResponse struct {
	Message         string `json:"message"`
	Body            any    `json:"body"`
	SignatureStatus string `json:"signature_status"`
	Timestamp       string `json:"timestamp"`
}

func timestamp() string {
	return time.Now().UTC().Format(timestampFormat)
}

func respondJSON(res http.ResponseWriter, status int, data any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	err := json.NewEncoder(res).Encode(data)
	if err != nil {
		slog.Error("Failed to write response", slog.String("err", err.Error()))
	}
}

func respondError(res http.ResponseWriter, status int, message string) {
	respondJSON(res, status, ErrorResponse{Error: message})
}
