package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Decode the raw body for use by handlers according to its content type.
// JSON bodies have to be an object or array. Form bodies become an object with
// string values, repeated keys become arrays. Any other content type results in
// an empty object. The raw body itself is left untouched.
func parseBody(contentType string, raw []byte) (any, error) {
	mediaType := ""
	if contentType != "" {
		var err error
		mediaType, _, err = mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("invalid content type '%s': %w", contentType, err)
		}
	}

	switch {
	case mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json"):
		return parseJSONBody(raw)
	case mediaType == contentTypeForm:
		return parseFormBody(raw)
	default:
		return map[string]any{}, nil
	}
}

func parseJSONBody(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return nil, fmt.Errorf("json body must be an object or array")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	// Keep numbers as sent instead of converting them to float64
	decoder.UseNumber()

	var body any
	err := decoder.Decode(&body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode json body: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after json body")
	}
	return body, nil
}

func parseFormBody(raw []byte) (any, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode form body: %w", err)
	}

	body := make(map[string]any, len(values))
	for key, v := range values {
		if len(v) == 1 {
			body[key] = v[0]
		} else {
			body[key] = v
		}
	}
	return body, nil
}
