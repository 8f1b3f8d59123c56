package strapi

import "errors"

var (
	// ErrInvalidConfig is returned by NewClient for an unusable Config
	ErrInvalidConfig = errors.New("invalid strapi config")

	// ErrNotFound is returned for a 404 or an empty single-entry lookup
	ErrNotFound = errors.New("strapi: not found")

	// ErrUnauthorized is returned for 401 and 403
	ErrUnauthorized = errors.New("strapi: unauthorized")

	// ErrInvalidRequest is returned for other 4xx responses
	ErrInvalidRequest = errors.New("strapi: invalid request")

	// ErrUnavailable covers network failures, 5xx and an open breaker
	ErrUnavailable = errors.New("strapi: unavailable")

	// ErrInvalidResponse is returned when a body cannot be decoded
	ErrInvalidResponse = errors.New("strapi: invalid response")
)
