package providers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/city-explorer/internal/explorer"
)

// DefaultGeocodeURL is the Google Geocoding endpoint.
const DefaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GeocodeAdapter resolves search queries into locations with the Google Geocoding API.
type GeocodeAdapter struct {
	baseURL string
	apiKey  string
}

// NewGeocodeAdapter returns an adapter for baseURL, or DefaultGeocodeURL when empty.
func NewGeocodeAdapter(baseURL, apiKey string) *GeocodeAdapter {
	if baseURL == "" {
		baseURL = DefaultGeocodeURL
	}
	return &GeocodeAdapter{baseURL: baseURL, apiKey: apiKey}
}

// Resource reports explorer.ResourceLocations.
func (a *GeocodeAdapter) Resource() explorer.ResourceType {
	return explorer.ResourceLocations
}

// BuildRequest geocodes q.SearchQuery.
func (a *GeocodeAdapter) BuildRequest(q explorer.Query) (*http.Request, error) {
	values := url.Values{}
	values.Set("address", q.SearchQuery)
	values.Set("key", a.apiKey)

	return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", a.baseURL, values.Encode()), nil)
}

type geocodePayload struct {
	Status  string `json:"status"`
	Results *[]struct {
		FormattedAddress *string `json:"formatted_address"`
		Geometry         *struct {
			Location *struct {
				Lat *float64 `json:"lat"`
				Lng *float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Parse returns the first geocoding result as a Location. Only the first result is
// used; the rest are discarded.
func (a *GeocodeAdapter) Parse(q explorer.Query, raw []byte) ([]explorer.Record, error) {
	var payload geocodePayload
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}

	switch payload.Status {
	case "", "OK":
	case "ZERO_RESULTS":
		return nil, fmt.Errorf("%w: %q", explorer.ErrNotFound, q.SearchQuery)
	default:
		// REQUEST_DENIED, OVER_QUERY_LIMIT and friends arrive with HTTP 200.
		return nil, fmt.Errorf("%w: geocode status %s", explorer.ErrProviderUnavailable, payload.Status)
	}
	if payload.Results == nil {
		return nil, missing("results")
	}
	if len(*payload.Results) == 0 {
		return nil, fmt.Errorf("%w: %q", explorer.ErrNotFound, q.SearchQuery)
	}

	first := (*payload.Results)[0]
	switch {
	case first.FormattedAddress == nil:
		return nil, missing("results[0].formatted_address")
	case first.Geometry == nil || first.Geometry.Location == nil:
		return nil, missing("results[0].geometry.location")
	case first.Geometry.Location.Lat == nil || first.Geometry.Location.Lng == nil:
		return nil, missing("results[0].geometry.location.lat/lng")
	}

	loc := explorer.NormalizeLocation(
		q.SearchQuery,
		*first.FormattedAddress,
		*first.Geometry.Location.Lat,
		*first.Geometry.Location.Lng,
	)
	return []explorer.Record{loc}, nil
}

// Decode maps a stored locations row.
func (a *GeocodeAdapter) Decode(row explorer.Row) (explorer.Record, error) {
	return explorer.DecodeLocation(row)
}
