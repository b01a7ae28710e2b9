package providers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/city-explorer/internal/explorer"
)

// DefaultEventbriteURL is the Eventbrite event search endpoint.
const DefaultEventbriteURL = "https://www.eventbriteapi.com/v3/events/search/"

// EventbriteAdapter searches events around a coordinate pair.
type EventbriteAdapter struct {
	baseURL string
	token   string
}

// NewEventbriteAdapter returns an adapter for baseURL, or DefaultEventbriteURL when empty.
func NewEventbriteAdapter(baseURL, token string) *EventbriteAdapter {
	if baseURL == "" {
		baseURL = DefaultEventbriteURL
	}
	return &EventbriteAdapter{baseURL: baseURL, token: token}
}

// Resource reports explorer.ResourceEvents.
func (a *EventbriteAdapter) Resource() explorer.ResourceType {
	return explorer.ResourceEvents
}

// BuildRequest searches events around q's coordinates.
func (a *EventbriteAdapter) BuildRequest(q explorer.Query) (*http.Request, error) {
	values := url.Values{}
	values.Set("token", a.token)
	values.Set("location.latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	values.Set("location.longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))

	return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", a.baseURL, values.Encode()), nil)
}

type textField struct {
	Text *string `json:"text"`
}

type eventbritePayload struct {
	Events *[]struct {
		Name  *textField `json:"name"`
		URL   *string    `json:"url"`
		Start *struct {
			Local *string `json:"local"`
		} `json:"start"`
		Description *textField `json:"description"`
	} `json:"events"`
}

// Parse requires the nested name, start and description objects. Their text values
// may be null and then read as empty.
func (a *EventbriteAdapter) Parse(_ explorer.Query, raw []byte) ([]explorer.Record, error) {
	var payload eventbritePayload
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Events == nil {
		return nil, missing("events")
	}

	events := *payload.Events
	out := make([]explorer.Record, 0, len(events))
	for i, ev := range events {
		switch {
		case ev.Name == nil:
			return nil, missing(fmt.Sprintf("events[%d].name", i))
		case ev.Start == nil || ev.Start.Local == nil:
			return nil, missing(fmt.Sprintf("events[%d].start.local", i))
		case ev.Description == nil:
			return nil, missing(fmt.Sprintf("events[%d].description", i))
		}

		rec, err := explorer.NormalizeEvent(str(ev.Name.Text), str(ev.URL), *ev.Start.Local, str(ev.Description.Text))
		if err != nil {
			return nil, fmt.Errorf("%w: events[%d]: %v", explorer.ErrMalformedPayload, i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Decode maps a stored events row.
func (a *EventbriteAdapter) Decode(row explorer.Row) (explorer.Record, error) {
	return explorer.DecodeEvent(row)
}
