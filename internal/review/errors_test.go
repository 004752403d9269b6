package review

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"smellcheck/internal/llm"
	"smellcheck/internal/tester"
)

func TestKindCoversTheTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrMissingCredential, "missing_credential"},
		{ErrBusy, "busy"},
		{ErrNoAnalysisYet, "no_analysis_yet"},
		{fmt.Errorf("%w: unexpected token", ErrParse), "parse_error"},
		{llm.ErrTimeout, "timeout"},
		{fmt.Errorf("%w: connection refused", llm.ErrNetwork), "network_error"},
		{llm.ErrBadCredential, "bad_credential"},
		{llm.ErrUnauthorized, "unauthorized"},
		{llm.ErrRateLimited, "rate_limited"},
		{llm.ErrMalformedEnvelope, "malformed_envelope"},
		{&llm.EndpointError{Code: 503}, "endpoint_error"},
		{errors.New("mystery"), "internal"},
	}
	for _, tc := range cases {
		tester.Eq(t, Kind(tc.err), tc.want, fmt.Sprintf("err %v", tc.err))
	}
}

func TestMessageIsStablePerKind(t *testing.T) {
	// Two different wrappings of the same sentinel read identically.
	a := Message(fmt.Errorf("%w: attempt on monday", llm.ErrTimeout))
	b := Message(fmt.Errorf("%w: attempt on friday", llm.ErrTimeout))
	tester.Eq(t, a, b)

	for _, err := range []error{
		ErrMissingCredential,
		ErrBusy,
		ErrNoAnalysisYet,
		ErrParse,
		llm.ErrTimeout,
		llm.ErrNetwork,
		llm.ErrBadCredential,
		llm.ErrUnauthorized,
		llm.ErrRateLimited,
		llm.ErrMalformedEnvelope,
		errors.New("mystery"),
	} {
		tester.True(t, Message(err) != "", fmt.Sprintf("no message for %v", err))
	}
}

func TestEndpointErrorMessageCarriesStatus(t *testing.T) {
	msg := Message(&llm.EndpointError{Code: 503})
	tester.True(t, strings.Contains(msg, "503"), msg)
}
