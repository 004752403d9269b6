package review

import (
	"errors"
	"fmt"

	"smellcheck/internal/llm"
)

// Session-level failures. Endpoint and transport failures are defined in the
// llm package; Kind and Message below cover both families so every surface
// (REST, CLI) renders a given failure the same way.
var (
	ErrMissingCredential = errors.New("review: no credential configured")
	ErrBusy              = errors.New("review: a request is already in flight")
	ErrNoAnalysisYet     = errors.New("review: no analysis available")
	ErrParse             = errors.New("review: model reply is not a JSON object")
)

// Kind returns a stable machine-readable identifier for err, suitable for
// wire contracts and switch statements. Unrecognized errors map to
// "internal".
func Kind(err error) string {
	var epErr *llm.EndpointError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrNoAnalysisYet):
		return "no_analysis_yet"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, llm.ErrTimeout):
		return "timeout"
	case errors.Is(err, llm.ErrNetwork):
		return "network_error"
	case errors.Is(err, llm.ErrBadCredential):
		return "bad_credential"
	case errors.Is(err, llm.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, llm.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, llm.ErrMalformedEnvelope):
		return "malformed_envelope"
	case errors.As(err, &epErr):
		return "endpoint_error"
	default:
		return "internal"
	}
}

// Message returns the single user-facing message for err's kind. Two errors
// of the same kind always produce the same text, except endpoint errors,
// which carry their status code.
func Message(err error) string {
	switch Kind(err) {
	case "":
		return ""
	case "missing_credential":
		return "No API credential is configured. Set one and try again."
	case "busy":
		return "A request is already running. Wait for it to finish."
	case "no_analysis_yet":
		return "Run an analysis before asking follow-up questions."
	case "parse_error":
		return "The model reply could not be read as an analysis report. Try again."
	case "timeout":
		return "The completion endpoint took too long and the request was aborted."
	case "network_error":
		return "The completion endpoint could not be reached. Check your connection."
	case "bad_credential":
		return "The completion endpoint rejected the request. The credential looks invalid."
	case "unauthorized":
		return "The completion endpoint refused the credential."
	case "rate_limited":
		return "Too many requests right now. Wait a moment and retry."
	case "malformed_envelope":
		return "The completion endpoint answered in an unexpected format."
	case "endpoint_error":
		var epErr *llm.EndpointError
		if errors.As(err, &epErr) {
			return fmt.Sprintf("The completion endpoint failed with status %d.", epErr.Code)
		}
		return "The completion endpoint failed."
	default:
		return "Something went wrong. The session is still usable; try again."
	}
}
