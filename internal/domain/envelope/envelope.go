package envelope

// Package envelope models the upstream's standard JSON response wrapper:
// an spHeader block carrying success/error metadata next to an opaque
// spData payload. Envelopes are transient and never persisted.

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// CodeSessionExpired is the upstream error code signalling that the login
// session is no longer valid.
const CodeSessionExpired = 201

// Envelope wraps every upstream API response.
type Envelope struct {
	SPHeader Header          `json:"spHeader"`
	SPData   json.RawMessage `json:"spData"`
}

// Header is the metadata block of an envelope.
type Header struct {
	Success   bool    `json:"success"`
	Errors    []Error `json:"errors,omitempty"`
	Csrf      string  `json:"csrf,omitempty"`
	AuthLevel string  `json:"authLevel,omitempty"`
	Username  string  `json:"username,omitempty"`

	// Version is the server change identifier, present after
	// authentication. Nil when the upstream omitted it.
	Version *int `json:"SP_HEADER_VERSION,omitempty"`
}

// Error is a single upstream-reported failure.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// Decode parses an envelope from a response body.
func Decode(r io.Reader) (*Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// FirstErrorCode returns the code of the first reported error, or zero when
// the envelope reports none. The upstream puts the decisive code first.
func (e *Envelope) FirstErrorCode() int {
	if len(e.SPHeader.Errors) == 0 {
		return 0
	}
	return e.SPHeader.Errors[0].Code
}

// ErrorDetail flattens the reported errors into a single diagnostic string.
func (h Header) ErrorDetail() string {
	if len(h.Errors) == 0 {
		return "no error detail"
	}
	parts := make([]string, 0, len(h.Errors))
	for _, e := range h.Errors {
		if e.Message == "" {
			parts = append(parts, fmt.Sprintf("code %d", e.Code))
			continue
		}
		parts = append(parts, fmt.Sprintf("code %d: %s", e.Code, e.Message))
	}
	return strings.Join(parts, "; ")
}
