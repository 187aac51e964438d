package reddit

import (
	"errors"
	"fmt"
)

// ErrRateLimited signals an HTTP 429 from the provider. The collector
// reacts with a cool-down and retries the same phase.
var ErrRateLimited = errors.New("rate limited by provider")

// ProviderError covers every other provider-side failure: transport
// errors, unexpected status codes, malformed responses.
type ProviderError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
