package analysis

import "github.com/pkg/errors"

var (
	// ErrProviderUnavailable is returned when no analysis provider is
	// configured (missing API key or failed client construction). The
	// coordinator keeps operating; every provider call fails with this.
	ErrProviderUnavailable = errors.New("analysis provider unavailable")

	// ErrMalformedResponse is returned when the provider responds with JSON
	// that does not conform to the requested schema. A non-conforming
	// response is a parse failure, never a partial result.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrQueueClosed is returned for tasks submitted to, or still waiting
	// in, a throttle queue that has been shut down.
	ErrQueueClosed = errors.New("throttle queue closed")
)
