package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/i474232898/city-explorer/internal/explorer"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "explorer.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func insertLocation(t *testing.T, s *SQLStore, query string) int64 {
	t.Helper()

	row, err := s.Insert(context.Background(), explorer.ResourceLocations, explorer.Location{
		SearchQuery:    query,
		FormattedQuery: query + ", USA",
		Latitude:       47.6062,
		Longitude:      -122.3321,
	}.Row())
	if err != nil {
		t.Fatalf("insert location: %v", err)
	}
	id, ok := row["id"].(int64)
	if !ok || id <= 0 {
		t.Fatalf("insert returned id=%v", row["id"])
	}
	return id
}

func TestSQLStoreLocationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id := insertLocation(t, s, "seattle")

	rows, err := s.FindBy(ctx, explorer.ResourceLocations, "search_query", "seattle")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	loc, err := explorer.DecodeLocation(rows[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loc.ID != id || loc.FormattedQuery != "seattle, USA" || loc.Latitude != 47.6062 || loc.Longitude != -122.3321 {
		t.Fatalf("unexpected location: %+v", loc)
	}

	if _, err := s.Insert(ctx, explorer.ResourceLocations, explorer.Location{SearchQuery: "seattle"}.Row()); err == nil {
		t.Fatal("expected unique violation on search_query")
	}
}

func TestSQLStoreMoviesByLocation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	seattle := insertLocation(t, s, "seattle")
	tacoma := insertLocation(t, s, "tacoma")

	movie := explorer.Movie{
		Title:        "Sleepless in Seattle",
		Overview:     "A widower's son calls a radio show.",
		AverageVotes: 6.6,
		TotalVotes:   1215,
		ImageURL:     explorer.PosterBaseURL + "/abc.jpg",
		Popularity:   10.5,
		ReleasedOn:   "1993-06-24",
	}
	row := movie.Row()
	row["location_id"] = seattle
	stored, err := s.Insert(ctx, explorer.ResourceMovies, row)
	if err != nil {
		t.Fatalf("insert movie: %v", err)
	}

	rows, err := s.FindBy(ctx, explorer.ResourceMovies, "location_id", seattle)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 movie, got %d", len(rows))
	}
	got, err := explorer.DecodeMovie(rows[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	movie.ID = stored["id"].(int64)
	movie.LocationID = seattle
	if got != movie {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, movie)
	}

	other, err := s.FindBy(ctx, explorer.ResourceMovies, "location_id", tacoma)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no movies for tacoma, got %d", len(other))
	}
}

func TestSQLStoreEnforcesForeignKey(t *testing.T) {
	s := openTestStore(t)

	row := explorer.Weather{Forecast: "Clear", Time: "Fri Jan 01 2021"}.Row()
	row["location_id"] = int64(999)
	if _, err := s.Insert(context.Background(), explorer.ResourceWeather, row); err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestSQLStoreRejectsUnknownIdentifiers(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.FindBy(ctx, "weather; DROP TABLE weather", "id", 1); err == nil {
		t.Fatal("expected error for unknown table")
	}
	if _, err := s.FindBy(ctx, explorer.ResourceWeather, "1=1 OR location_id", 1); err == nil {
		t.Fatal("expected error for unknown column")
	}
	if _, err := s.Insert(ctx, explorer.ResourceEvents, explorer.Row{"name": "x"}); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explorer.db")

	first, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	insertLocation(t, first, "seattle")
	_ = first.Close()

	second, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	rows, err := second.FindBy(context.Background(), explorer.ResourceLocations, "search_query", "seattle")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected data to survive reopen, got %d rows", len(rows))
	}
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		in      string
		dialect Dialect
		dsn     string
	}{
		{"postgres://u:p@localhost:5432/city?sslmode=disable", DialectPostgres, "postgres://u:p@localhost:5432/city?sslmode=disable"},
		{"postgresql://localhost/city", DialectPostgres, "postgresql://localhost/city"},
		{"city.db", DialectSQLite, "file:city.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"sqlite://data/city.db", DialectSQLite, "file:data/city.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"file:city.db?mode=rwc", DialectSQLite, "file:city.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
	}
	for _, tt := range tests {
		d, dsn, err := ParseDatabaseURL(tt.in)
		if err != nil {
			t.Fatalf("ParseDatabaseURL(%q): %v", tt.in, err)
		}
		if d != tt.dialect || dsn != tt.dsn {
			t.Errorf("ParseDatabaseURL(%q) = (%v, %q), want (%v, %q)", tt.in, d, dsn, tt.dialect, tt.dsn)
		}
	}

	if _, _, err := ParseDatabaseURL("  "); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO weather (forecast, time, location_id) VALUES (?, ?, ?)"
	if got := DialectSQLite.Rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
	want := "INSERT INTO weather (forecast, time, location_id) VALUES ($1, $2, $3)"
	if got := DialectPostgres.Rebind(q); got != want {
		t.Fatalf("postgres rebind = %s, want %s", got, want)
	}
}
