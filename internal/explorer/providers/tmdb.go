package providers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/city-explorer/internal/explorer"
)

// DefaultTMDBURL is The Movie Database search endpoint.
const DefaultTMDBURL = "https://api.themoviedb.org/3/search/movie"

// TMDBAdapter searches movies matching the location's search query.
type TMDBAdapter struct {
	baseURL string
	apiKey  string
}

// NewTMDBAdapter returns an adapter for baseURL, or DefaultTMDBURL when empty.
func NewTMDBAdapter(baseURL, apiKey string) *TMDBAdapter {
	if baseURL == "" {
		baseURL = DefaultTMDBURL
	}
	return &TMDBAdapter{baseURL: baseURL, apiKey: apiKey}
}

// Resource reports explorer.ResourceMovies.
func (a *TMDBAdapter) Resource() explorer.ResourceType {
	return explorer.ResourceMovies
}

// BuildRequest searches movies by q.SearchQuery.
func (a *TMDBAdapter) BuildRequest(q explorer.Query) (*http.Request, error) {
	values := url.Values{}
	values.Set("api_key", a.apiKey)
	values.Set("language", "en-US")
	values.Set("page", "1")
	values.Set("include_adult", "false")
	values.Set("query", q.SearchQuery)

	return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", a.baseURL, values.Encode()), nil)
}

type tmdbPayload struct {
	Results *[]struct {
		OriginalTitle *string `json:"original_title"`
		Overview      string  `json:"overview"`
		VoteAverage   float64 `json:"vote_average"`
		VoteCount     int64   `json:"vote_count"`
		PosterPath    *string `json:"poster_path"`
		Popularity    float64 `json:"popularity"`
		ReleaseDate   string  `json:"release_date"`
	} `json:"results"`
}

// Parse maps search hits onto movies. A null poster_path keeps the bare CDN prefix.
func (a *TMDBAdapter) Parse(_ explorer.Query, raw []byte) ([]explorer.Record, error) {
	var payload tmdbPayload
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Results == nil {
		return nil, missing("results")
	}

	results := *payload.Results
	out := make([]explorer.Record, 0, len(results))
	for i, m := range results {
		if m.OriginalTitle == nil {
			return nil, missing(fmt.Sprintf("results[%d].original_title", i))
		}
		out = append(out, explorer.NormalizeMovie(
			*m.OriginalTitle,
			m.Overview,
			m.VoteAverage,
			m.VoteCount,
			str(m.PosterPath),
			m.Popularity,
			m.ReleaseDate,
		))
	}
	return out, nil
}

// Decode maps a stored movies row.
func (a *TMDBAdapter) Decode(row explorer.Row) (explorer.Record, error) {
	return explorer.DecodeMovie(row)
}
