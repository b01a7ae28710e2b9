package explorer

import (
	"fmt"
	"time"

	"github.com/i474232898/city-explorer/internal/common"
)

const (
	// DateLayout matches JavaScript's Date.prototype.toDateString.
	DateLayout = "Mon Jan 02 2006"

	// PosterBaseURL is the TMDB CDN prefix for poster images.
	PosterBaseURL = "https://image.tmdb.org/t/p/w200_and_h300_bestv2"

	summaryLimit  = 500
	summaryMarker = "...."

	eventLocalLayout = "2006-01-02T15:04:05"
)

// NormalizeLocation builds the canonical location for a geocoded search query.
func NormalizeLocation(searchQuery, formattedAddress string, lat, lng float64) Location {
	return Location{
		SearchQuery:    searchQuery,
		FormattedQuery: formattedAddress,
		Latitude:       lat,
		Longitude:      lng,
	}
}

// NormalizeWeather maps one daily forecast; unixSeconds is rendered as a UTC date.
func NormalizeWeather(summary string, unixSeconds int64) Weather {
	return Weather{
		Forecast: summary,
		Time:     time.Unix(unixSeconds, 0).UTC().Format(DateLayout),
	}
}

// NormalizeEvent maps one event. The summary keeps the first 500 characters of the
// description and always ends with "....", truncated or not.
func NormalizeEvent(name, link, startLocal, description string) (Event, error) {
	start, err := parseEventStart(startLocal)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Name:      name,
		Link:      link,
		EventDate: start.Format(DateLayout),
		Summary:   common.Truncate(description, summaryLimit) + summaryMarker,
	}, nil
}

func parseEventStart(s string) (time.Time, error) {
	if t, err := time.Parse(eventLocalLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid event start %q", s)
}

// NormalizeMovie maps one movie search hit. An empty posterPath still yields the bare
// CDN prefix as image URL.
func NormalizeMovie(title, overview string, voteAverage float64, voteCount int64, posterPath string, popularity float64, releaseDate string) Movie {
	return Movie{
		Title:        title,
		Overview:     overview,
		AverageVotes: voteAverage,
		TotalVotes:   voteCount,
		ImageURL:     PosterBaseURL + posterPath,
		Popularity:   popularity,
		ReleasedOn:   releaseDate,
	}
}
