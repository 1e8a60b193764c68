// Package upstream implements query strategies against external listing
// providers. Each strategy is one way of asking one source for data; the
// aggregator attempts them strictly in priority order and stops at the first
// non-error, non-empty result.
package upstream

import "context"

// QueryParams carries the inputs for one upstream query attempt
type QueryParams struct {
	Address    string
	PostalCode string
	Limit      int
}

// RawResponse is an opaque upstream payload. Provider schemas vary
// call-to-call, so the body is kept as raw JSON until extraction.
type RawResponse struct {
	Source string
	Body   []byte
}

// QueryStrategy issues one external query attempt. Implementations return a
// categorized error on failure so the aggregator can decide between falling
// through to the next strategy, stopping the chain, or short-circuiting to
// synthesis.
type QueryStrategy interface {
	Name() string
	Query(ctx context.Context, params QueryParams) (*RawResponse, error)
}
