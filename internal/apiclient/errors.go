package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by a ServerError carrying a 404 status.
var ErrNotFound = errors.New("resume not found")

// NetworkError reports a request that never produced an HTTP response.
// Its message is the transport's own error text.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError reports a non-2xx response. Detail is the backend's "detail" string, if any.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *ServerError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// DecodeError reports a 2xx response whose body is not the expected JSON.
type DecodeError struct {
	Op     string
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
