package upstream

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// HTTPDoer is the subset of ProviderClient the strategies need. Tests swap
// in a stub to exercise the status-mapping and fallthrough behavior.
type HTTPDoer interface {
	Get(ctx context.Context, source, path string, query url.Values) ([]byte, error)
}

// ZipSearchStrategy queries the provider's postal-code search endpoint. It is
// the highest-priority strategy because ZIP search returns the densest result
// sets.
type ZipSearchStrategy struct {
	client HTTPDoer
}

// NewZipSearchStrategy creates the postal-code search strategy
func NewZipSearchStrategy(client HTTPDoer) *ZipSearchStrategy {
	return &ZipSearchStrategy{client: client}
}

// Name identifies the strategy in logs
func (s *ZipSearchStrategy) Name() string {
	return "search-by-postal-code"
}

// Query searches the provider by postal code
func (s *ZipSearchStrategy) Query(ctx context.Context, params QueryParams) (*RawResponse, error) {
	query := url.Values{}
	query.Set("location", params.PostalCode)
	query.Set("status_type", "ForSale")
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	body, err := s.client.Get(ctx, s.Name(), "/propertyExtendedSearch", query)
	if err != nil {
		return nil, err
	}
	return &RawResponse{Source: s.Name(), Body: body}, nil
}

// LocationSearchStrategy queries the provider's free-text location search.
// It is attempted after ZIP search because free-text matching is fuzzier and
// the provider rejects some formats.
type LocationSearchStrategy struct {
	client HTTPDoer
}

// NewLocationSearchStrategy creates the free-text location search strategy
func NewLocationSearchStrategy(client HTTPDoer) *LocationSearchStrategy {
	return &LocationSearchStrategy{client: client}
}

// Name identifies the strategy in logs
func (s *LocationSearchStrategy) Name() string {
	return "search-by-location"
}

// Query searches the provider by free-text location, combining the street
// address and postal code when both are available
func (s *LocationSearchStrategy) Query(ctx context.Context, params QueryParams) (*RawResponse, error) {
	location := params.Address
	if params.PostalCode != "" {
		location = strings.TrimSpace(location + " " + params.PostalCode)
	}

	query := url.Values{}
	query.Set("location", location)
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	body, err := s.client.Get(ctx, s.Name(), "/locationSuggestions", query)
	if err != nil {
		return nil, err
	}
	return &RawResponse{Source: s.Name(), Body: body}, nil
}
