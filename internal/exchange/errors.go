// internal/exchange/errors.go
package exchange

import "fmt"

// APIError is a structured error reply from the exchange REST API.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange api error (http %d, code %d): %s", e.HTTPStatus, e.Code, e.Message)
}

// retryable reports whether a request that failed with this error is worth
// repeating. Client-side errors (bad symbol, bad signature) never are.
func (e *APIError) retryable() bool {
	return e.HTTPStatus == 429 || e.HTTPStatus >= 500
}
