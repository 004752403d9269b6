package llm

import (
	"errors"
	"fmt"
)

// Failure classification for completion calls. Every client maps its
// transport and endpoint outcomes onto exactly one of these (or
// *EndpointError), so upper layers can branch with errors.Is/As instead of
// string matching.
var (
	ErrNetwork           = errors.New("llm: endpoint unreachable")
	ErrTimeout           = errors.New("llm: request timed out")
	ErrBadCredential     = errors.New("llm: endpoint rejected the request as malformed")
	ErrUnauthorized      = errors.New("llm: credential refused")
	ErrRateLimited       = errors.New("llm: rate limited")
	ErrMalformedEnvelope = errors.New("llm: malformed response envelope")
)

// EndpointError reports a non-2xx status that has no more specific
// classification, e.g. a 500 from the provider.
type EndpointError struct {
	Code int
	Body string
}

func (e *EndpointError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("llm: endpoint returned status %d", e.Code)
	}
	return fmt.Sprintf("llm: endpoint returned status %d: %s", e.Code, e.Body)
}

// classifyStatus maps a non-2xx HTTP status onto the taxonomy above.
// Completion endpoints report an unusable key or request as 400.
func classifyStatus(status int, bodyExcerpt string) error {
	switch status {
	case 400:
		return ErrBadCredential
	case 401, 403:
		return ErrUnauthorized
	case 429:
		return ErrRateLimited
	default:
		return &EndpointError{Code: status, Body: bodyExcerpt}
	}
}
