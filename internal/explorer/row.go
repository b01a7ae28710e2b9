package explorer

import (
	"fmt"
	"strconv"
)

// Row is one stored row keyed by column name.
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String reads a text column. Drivers may hand back []byte for text.
func (r Row) String(col string) (string, error) {
	switch v := r[col].(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("column %s: want text, got %T", col, v)
	}
}

// Int64 reads an integer column. A missing column reads as zero.
func (r Row) Int64(col string) (int64, error) {
	switch v := r[col].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("column %s: want integer, got %T", col, v)
	}
}

// Float64 reads a numeric column.
func (r Row) Float64(col string) (float64, error) {
	switch v := r[col].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("column %s: want number, got %T", col, v)
	}
}

// rowReader collects the first conversion error so decoders stay linear.
type rowReader struct {
	row Row
	err error
}

func (rr *rowReader) str(col string) string {
	v, err := rr.row.String(col)
	if err != nil && rr.err == nil {
		rr.err = err
	}
	return v
}

func (rr *rowReader) i64(col string) int64 {
	v, err := rr.row.Int64(col)
	if err != nil && rr.err == nil {
		rr.err = err
	}
	return v
}

func (rr *rowReader) f64(col string) float64 {
	v, err := rr.row.Float64(col)
	if err != nil && rr.err == nil {
		rr.err = err
	}
	return v
}

// DecodeLocation maps a locations row.
func DecodeLocation(row Row) (Location, error) {
	rr := rowReader{row: row}
	loc := Location{
		ID:             rr.i64("id"),
		SearchQuery:    rr.str("search_query"),
		FormattedQuery: rr.str("formatted_query"),
		Latitude:       rr.f64("latitude"),
		Longitude:      rr.f64("longitude"),
	}
	if rr.err != nil {
		return Location{}, fmt.Errorf("decode location: %w", rr.err)
	}
	return loc, nil
}

// DecodeWeather maps a weather row.
func DecodeWeather(row Row) (Weather, error) {
	rr := rowReader{row: row}
	w := Weather{
		ID:         rr.i64("id"),
		Forecast:   rr.str("forecast"),
		Time:       rr.str("time"),
		LocationID: rr.i64("location_id"),
	}
	if rr.err != nil {
		return Weather{}, fmt.Errorf("decode weather: %w", rr.err)
	}
	return w, nil
}

// DecodeEvent maps an events row.
func DecodeEvent(row Row) (Event, error) {
	rr := rowReader{row: row}
	e := Event{
		ID:         rr.i64("id"),
		Name:       rr.str("name"),
		Link:       rr.str("link"),
		EventDate:  rr.str("event_date"),
		Summary:    rr.str("summary"),
		LocationID: rr.i64("location_id"),
	}
	if rr.err != nil {
		return Event{}, fmt.Errorf("decode event: %w", rr.err)
	}
	return e, nil
}

// DecodeMovie maps a movies row.
func DecodeMovie(row Row) (Movie, error) {
	rr := rowReader{row: row}
	m := Movie{
		ID:           rr.i64("id"),
		Title:        rr.str("title"),
		Overview:     rr.str("overview"),
		AverageVotes: rr.f64("average_votes"),
		TotalVotes:   rr.i64("total_votes"),
		ImageURL:     rr.str("image_url"),
		Popularity:   rr.f64("popularity"),
		ReleasedOn:   rr.str("released_on"),
		LocationID:   rr.i64("location_id"),
	}
	if rr.err != nil {
		return Movie{}, fmt.Errorf("decode movie: %w", rr.err)
	}
	return m, nil
}
