package providers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/city-explorer/internal/explorer"
)

// DefaultDarkSkyURL is the Dark Sky forecast endpoint.
const DefaultDarkSkyURL = "https://api.darksky.net/forecast"

// DarkSkyAdapter fetches the daily forecast for a coordinate pair.
type DarkSkyAdapter struct {
	baseURL string
	apiKey  string
}

// NewDarkSkyAdapter returns an adapter for baseURL, or DefaultDarkSkyURL when empty.
func NewDarkSkyAdapter(baseURL, apiKey string) *DarkSkyAdapter {
	if baseURL == "" {
		baseURL = DefaultDarkSkyURL
	}
	return &DarkSkyAdapter{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

// Resource reports explorer.ResourceWeather.
func (a *DarkSkyAdapter) Resource() explorer.ResourceType {
	return explorer.ResourceWeather
}

// BuildRequest targets {base}/{key}/{lat},{lng}.
func (a *DarkSkyAdapter) BuildRequest(q explorer.Query) (*http.Request, error) {
	coords := strconv.FormatFloat(q.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(q.Longitude, 'f', -1, 64)
	u := fmt.Sprintf("%s/%s/%s", a.baseURL, url.PathEscape(a.apiKey), coords)
	return http.NewRequest(http.MethodGet, u, nil)
}

type darkSkyPayload struct {
	Daily *struct {
		Data *[]struct {
			Summary *string `json:"summary"`
			Time    *int64  `json:"time"`
		} `json:"data"`
	} `json:"daily"`
}

// Parse maps every daily forecast entry onto a Weather record.
func (a *DarkSkyAdapter) Parse(_ explorer.Query, raw []byte) ([]explorer.Record, error) {
	var payload darkSkyPayload
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Daily == nil || payload.Daily.Data == nil {
		return nil, missing("daily.data")
	}

	days := *payload.Daily.Data
	out := make([]explorer.Record, 0, len(days))
	for i, day := range days {
		if day.Summary == nil {
			return nil, missing(fmt.Sprintf("daily.data[%d].summary", i))
		}
		if day.Time == nil {
			return nil, missing(fmt.Sprintf("daily.data[%d].time", i))
		}
		out = append(out, explorer.NormalizeWeather(*day.Summary, *day.Time))
	}
	return out, nil
}

// Decode maps a stored weather row.
func (a *DarkSkyAdapter) Decode(row explorer.Row) (explorer.Record, error) {
	return explorer.DecodeWeather(row)
}
