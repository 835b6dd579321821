// Package api implements the sales API client: bearer-token lifecycle,
// product resolution, and the per-cycle sale poller with edge-triggered
// notification events.
package api

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors classify poll failures. All of them are recoverable by
// retrying on the next scheduled cycle; none is fatal to the process.
var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrUnauthenticated    = errors.New("no token held")
	ErrAuthFailed         = errors.New("token acquisition failed")
	ErrTransport          = errors.New("transport failure")
	ErrParse              = errors.New("response parse failure")
	ErrInvalidSaleID      = errors.New("sale id not numeric")
	ErrInvalidProductRef  = errors.New("product reference not parseable")
)

// StatusError reports a non-200 HTTP response from the upstream API.
type StatusError struct {
	Op   string // "token", "sales" or "product"
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s HTTP %d", e.Op, e.Code)
}

// StatusCode returns the HTTP status carried by err, or 0 if err does not
// wrap a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
