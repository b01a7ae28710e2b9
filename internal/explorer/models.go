package explorer

// ResourceType tags a kind of cached data. The value doubles as its table name.
type ResourceType string

const (
	ResourceLocations ResourceType = "locations"
	ResourceWeather   ResourceType = "weather"
	ResourceEvents    ResourceType = "events"
	ResourceMovies    ResourceType = "movies"
)

var tableColumns = map[ResourceType][]string{
	ResourceLocations: {"search_query", "formatted_query", "latitude", "longitude"},
	ResourceWeather:   {"forecast", "time", "location_id"},
	ResourceEvents:    {"name", "link", "event_date", "summary", "location_id"},
	ResourceMovies: {
		"title", "overview", "average_votes", "total_votes",
		"image_url", "popularity", "released_on", "location_id",
	},
}

// Columns returns the insertable columns of a table in insert order, or nil for an
// unknown table. The auto-assigned "id" column is not included.
func Columns(t ResourceType) []string {
	cols, ok := tableColumns[t]
	if !ok {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// HasColumn reports whether column exists on table t, including "id".
func HasColumn(t ResourceType, column string) bool {
	cols, ok := tableColumns[t]
	if !ok {
		return false
	}
	if column == "id" {
		return true
	}
	for _, c := range cols {
		if c == column {
			return true
		}
	}
	return false
}

// Query carries the request parameters a provider needs.
type Query struct {
	SearchQuery string
	Latitude    float64
	Longitude   float64
}

// Record is a canonical, storage-ready value for one resource type.
type Record interface {
	// Row returns the record's columns, without "id" and "location_id".
	Row() Row
}

// Location is the root entity every other record is keyed against.
type Location struct {
	ID             int64   `json:"id,omitempty"`
	SearchQuery    string  `json:"search_query"`
	FormattedQuery string  `json:"formatted_query"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

func (l Location) Row() Row {
	return Row{
		"search_query":    l.SearchQuery,
		"formatted_query": l.FormattedQuery,
		"latitude":        l.Latitude,
		"longitude":       l.Longitude,
	}
}

// Weather is one day of forecast for a location.
type Weather struct {
	ID         int64  `json:"id,omitempty"`
	Forecast   string `json:"forecast"`
	Time       string `json:"time"`
	LocationID int64  `json:"location_id,omitempty"`
}

func (w Weather) Row() Row {
	return Row{
		"forecast": w.Forecast,
		"time":     w.Time,
	}
}

// Event is a public event near a location.
type Event struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	Link       string `json:"link"`
	EventDate  string `json:"event_date"`
	Summary    string `json:"summary"`
	LocationID int64  `json:"location_id,omitempty"`
}

func (e Event) Row() Row {
	return Row{
		"name":       e.Name,
		"link":       e.Link,
		"event_date": e.EventDate,
		"summary":    e.Summary,
	}
}

// Movie is a film matching the location's search query.
type Movie struct {
	ID           int64   `json:"id,omitempty"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	AverageVotes float64 `json:"average_votes"`
	TotalVotes   int64   `json:"total_votes"`
	ImageURL     string  `json:"image_url"`
	Popularity   float64 `json:"popularity"`
	ReleasedOn   string  `json:"released_on"`
	LocationID   int64   `json:"location_id,omitempty"`
}

func (m Movie) Row() Row {
	return Row{
		"title":         m.Title,
		"overview":      m.Overview,
		"average_votes": m.AverageVotes,
		"total_votes":   m.TotalVotes,
		"image_url":     m.ImageURL,
		"popularity":    m.Popularity,
		"released_on":   m.ReleasedOn,
	}
}
