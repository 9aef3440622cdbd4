package signature

import (
	"crypto/hmac"
	"log/slog"
	"net/http"
	"strings"
)

// Name of the request header carrying "<algorithm>=<hex-digest>"
const Header = "X-Hub-Signature"

type Status int

const (
	StatusValid Status = iota
	StatusMissingSignature
	StatusMalformedSignature
	StatusUnsupportedAlgorithm
	StatusSignatureMismatch
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusMissingSignature:
		return "missing_signature"
	case StatusMalformedSignature:
		return "malformed_signature"
	case StatusUnsupportedAlgorithm:
		return "unsupported_algorithm"
	case StatusSignatureMismatch:
		return "signature_mismatch"
	default:
		return "unknown"
	}
}

// Outcome of validating a signature header against a request body.
// Only the fields relevant for the Status are set.
type Result struct {
	Status Status
	// The header value as it was received
	Received string
	// The parsed algorithm token
	Algorithm string
	// The computed signature formatted as "<algorithm>=<digest>", set on mismatch
	Expected string
	// The supported algorithms, set when the algorithm is unsupported
	Supported []string
}

type ErrorResponse struct {
	Error     string   `json:"error"`
	Received  string   `json:"received,omitempty"`
	Expected  string   `json:"expected,omitempty"`
	Supported []string `json:"supported,omitempty"`
}

func (r Result) Valid() bool {
	return r.Status == StatusValid
}

// HTTP status code the result maps to
func (r Result) StatusCode() int {
	switch r.Status {
	case StatusValid:
		return http.StatusOK
	case StatusMalformedSignature, StatusUnsupportedAlgorithm:
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}

// Diagnostic response body for a failed validation, nil if the result is valid
func (r Result) Response() *ErrorResponse {
	switch r.Status {
	case StatusValid:
		return nil
	case StatusMissingSignature:
		return &ErrorResponse{Error: "Missing x-hub-signature header"}
	case StatusMalformedSignature:
		return &ErrorResponse{
			Error:    "Invalid signature format",
			Received: r.Received,
		}
	case StatusUnsupportedAlgorithm:
		return &ErrorResponse{
			Error:     "Unsupported algorithm: " + r.Algorithm,
			Supported: r.Supported,
		}
	default:
		return &ErrorResponse{
			Error:    "Invalid signature",
			Expected: r.Expected,
			Received: r.Received,
		}
	}
}

// Validate the signature header against the raw request body.
// An empty header is treated as absent. An empty body is signed as the empty message.
func Validate(header string, body []byte, secret string) Result {
	if header == "" {
		return Result{Status: StatusMissingSignature}
	}

	algorithm, digest, found := strings.Cut(header, "=")
	if !found || algorithm == "" || digest == "" {
		return Result{Status: StatusMalformedSignature, Received: header}
	}

	if !IsSupported(algorithm) {
		return Result{
			Status:    StatusUnsupportedAlgorithm,
			Received:  header,
			Algorithm: algorithm,
			Supported: Supported(),
		}
	}

	computed, err := Sign(algorithm, []byte(secret), body)
	if err != nil {
		// Unreachable for supported algorithms
		slog.Error("Failed to compute signature", slog.String("algorithm", algorithm), slog.String("err", err.Error()))
		return Result{Status: StatusSignatureMismatch, Received: header, Algorithm: algorithm}
	}

	slog.Debug("Comparing webhook signature",
		slog.String("algorithm", algorithm),
		slog.String("received", digest),
		slog.String("expected", computed),
	)

	if !hmac.Equal([]byte(digest), []byte(computed)) {
		return Result{
			Status:    StatusSignatureMismatch,
			Received:  header,
			Algorithm: algorithm,
			Expected:  FormatHeader(algorithm, computed),
		}
	}

	return Result{Status: StatusValid, Received: header, Algorithm: algorithm}
}

// Validator checks signatures with a single shared secret
type Validator struct {
	secret string
}

func NewValidator(secret string) *Validator {
	return &Validator{
		secret: secret,
	}
}

// Validate the signature header of the request against the given raw body
func (v *Validator) ValidateRequest(req *http.Request, body []byte) Result {
	return Validate(req.Header.Get(Header), body, v.secret)
}
