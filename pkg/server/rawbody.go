package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

type rawBodyKey struct{}

// Return the exact request body as it was received, before any decoding.
// The returned slice is shared by the request and must not be modified.
// ok is false if the request had no body.
func RawBody(ctx context.Context) (body []byte, ok bool) {
	body, ok = ctx.Value(rawBodyKey{}).([]byte)
	return body, ok
}

// Read the whole request body once, store it in the request context and
// re-install it, so handlers can still read the stream.
// Requests failing to deliver their body within maxBytes are rejected with 400.
func (s *Server) captureRawBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if req.Body == nil || req.Body == http.NoBody {
			next.ServeHTTP(res, req)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(res, req.Body, s.maxBodyBytes))
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				slog.Warn("Request body exceeds limit", slog.String("path", req.URL.Path), slog.Int64("limit", maxBytesErr.Limit))
			} else {
				slog.Warn("Failed to read request body", slog.String("path", req.URL.Path), slog.String("err", err.Error()))
			}
			respondError(res, http.StatusBadRequest, "Invalid request body")
			return
		}
		s.metrics.requestBodyBytes.Observe(float64(len(body)))

		req.Body = io.NopCloser(bytes.NewReader(body))
		ctx := context.WithValue(req.Context(), rawBodyKey{}, body)
		next.ServeHTTP(res, req.WithContext(ctx))
	})
}
