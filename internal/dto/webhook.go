package dto

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingField      = errors.New("missing field")
	ErrInvalidConfidence = errors.New("invalid confidence")
)

// FieldError names the form field that failed decoding. Kind is ErrMissingField or ErrInvalidConfidence.
type FieldError struct {
	Field string
	Kind  error
	Value string
}

func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (%q)", e.Kind, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// KindLabel returns a short label for metrics.
func (e *FieldError) KindLabel() string {
	switch e.Kind {
	case ErrInvalidConfidence:
		return "invalid_confidence"
	default:
		return "missing_field"
	}
}

// CallStartRequest is the voice webhook sent when a call connects.
type CallStartRequest struct {
	From    string `form:"From"`
	CallSid string `form:"CallSid"`
}

// RecordingRequest is the <Record> action callback.
type RecordingRequest struct {
	RecordingURL string `form:"RecordingUrl"`
	CallSid      string `form:"CallSid"`
	From         string `form:"From"`
}

func (r *RecordingRequest) Validate() error {
	if strings.TrimSpace(r.RecordingURL) == "" {
		return &FieldError{Field: "RecordingUrl", Kind: ErrMissingField}
	}
	return nil
}

// TranscriptionRequest is the provider's transcribeCallback. Confidence arrives as a string.
type TranscriptionRequest struct {
	TranscriptionText string `form:"TranscriptionText"`
	CallSid           string `form:"CallSid"`
	Confidence        string `form:"Confidence"`
}

// ParseConfidence decodes Confidence as a float in [0, 1].
func (r *TranscriptionRequest) ParseConfidence() (float64, error) {
	raw := strings.TrimSpace(r.Confidence)
	if raw == "" {
		return 0, &FieldError{Field: "Confidence", Kind: ErrInvalidConfidence}
	}
	confidence, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return 0, &FieldError{Field: "Confidence", Kind: ErrInvalidConfidence, Value: raw}
	}
	return confidence, nil
}

type SMSRequest struct {
	From       string `form:"From"`
	Body       string `form:"Body"`
	MessageSid string `form:"MessageSid"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
