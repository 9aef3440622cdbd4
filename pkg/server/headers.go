package server

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var sensitiveHeaderParts = []string{"token", "authorization", "auth"}

// Report if the header name looks like it carries credentials.
// The check is a case-insensitive substring match.
func IsSensitive(name string) bool {
	name = strings.ToLower(name)
	for _, part := range sensitiveHeaderParts {
		if strings.Contains(name, part) {
			return true
		}
	}
	return false
}

// Flatten the request headers into lowercase names, joining multiple values with ", ".
// The host is included, as it is not part of http.Request.Header.
func collectHeaders(req *http.Request) map[string]string {
	headers := make(map[string]string, len(req.Header)+1)
	if req.Host != "" {
		headers["host"] = req.Host
	}
	for name, values := range req.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return headers
}

// Select all headers with a sensitive name
func filterTokenHeaders(headers map[string]string) map[string]string {
	tokenHeaders := make(map[string]string)
	for name, value := range headers {
		if IsSensitive(name) {
			tokenHeaders[name] = value
		}
	}
	return tokenHeaders
}

type DecodedToken struct {
	Header map[string]any `json:"header"`
	Claims jwt.MapClaims  `json:"claims"`
}

// Decode every token header holding a JWT, optionally prefixed by an auth scheme like
// "Bearer" or "JWT". The signature of the tokens is not verified, this is for display only.
func decodeTokens(tokenHeaders map[string]string) map[string]DecodedToken {
	parser := jwt.NewParser()

	decoded := make(map[string]DecodedToken)
	for name, value := range tokenHeaders {
		raw := value
		if scheme, rest, found := strings.Cut(value, " "); found && !strings.Contains(scheme, ".") {
			raw = strings.TrimSpace(rest)
		}
		if strings.Count(raw, ".") != 2 {
			continue
		}

		claims := jwt.MapClaims{}
		token, _, err := parser.ParseUnverified(raw, claims)
		if err != nil {
			continue
		}
		decoded[name] = DecodedToken{
			Header: token.Header,
			Claims: claims,
		}
	}
	return decoded
}
