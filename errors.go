package tobi

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrIncompleteRequest is returned when the peer stops sending before
	// the blank line that ends the header block.
	ErrIncompleteRequest = errors.New("incomplete request")
	// ErrRequestTooLarge is returned when the header block exceeds the read limit
	ErrRequestTooLarge = errors.New("request too large")
	// ErrInvalidEncoding is returned when the request is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid request encoding")
	// ErrMalformedRequestLine is returned when the request line cannot be split into its parts
	ErrMalformedRequestLine = errors.New("malformed request line")
)
