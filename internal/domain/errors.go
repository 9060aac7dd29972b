package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownParam is returned when a provider does not accept a query parameter
	ErrUnknownParam = errors.New("unknown parameter")
	// ErrMalformedParam is returned when a parameter value cannot be decoded
	ErrMalformedParam = errors.New("malformed parameter")
	// ErrNoResults is reported when a successful request returned zero items
	ErrNoResults = errors.New("no results")
	// ErrMissingCredentials is returned when a provider needs a secret that was not supplied
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrNotFound is returned by storage operations on unknown ids
	ErrNotFound = errors.New("record not found")
)

// ParamError describes a rejected configuration call. Prior parameters are left unchanged.
type ParamError struct {
	Source JobSource
	Key    string
	Value  string
	Err    error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: parameter %s=%q: %v", e.Source, e.Key, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// RequestError records a non-2xx answer from a job board
type RequestError struct {
	Source JobSource
	Status int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: request failed with status %d", e.Source, e.Status)
}
