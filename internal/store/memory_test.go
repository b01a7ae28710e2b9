package store

import (
	"context"
	"testing"

	"github.com/i474232898/city-explorer/internal/explorer"
)

func TestMemoryStoreInsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	loc, err := s.Insert(ctx, explorer.ResourceLocations, explorer.Location{
		SearchQuery:    "seattle",
		FormattedQuery: "Seattle, WA, USA",
		Latitude:       47.6062,
		Longitude:      -122.3321,
	}.Row())
	if err != nil {
		t.Fatalf("insert location: %v", err)
	}
	if loc["id"] != int64(1) {
		t.Fatalf("expected id 1, got %v", loc["id"])
	}

	for _, forecast := range []string{"Clear", "Rain"} {
		row := explorer.Weather{Forecast: forecast, Time: "Fri Jan 01 2021"}.Row()
		row["location_id"] = loc["id"]
		if _, err := s.Insert(ctx, explorer.ResourceWeather, row); err != nil {
			t.Fatalf("insert weather: %v", err)
		}
	}

	rows, err := s.FindBy(ctx, explorer.ResourceWeather, "location_id", 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["forecast"] != "Clear" || rows[1]["forecast"] != "Rain" {
		t.Fatalf("rows not in insert order: %v", rows)
	}

	// Returned rows are copies.
	rows[0]["forecast"] = "changed"
	again, _ := s.FindBy(ctx, explorer.ResourceWeather, "location_id", int64(1))
	if again[0]["forecast"] != "Clear" {
		t.Fatal("stored row was mutated through a returned copy")
	}

	none, err := s.FindBy(ctx, explorer.ResourceEvents, "location_id", int64(1))
	if err != nil {
		t.Fatalf("find events: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no events, got %d", len(none))
	}
}

func TestMemoryStoreRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Insert(ctx, "users", explorer.Row{"name": "x"}); err == nil {
		t.Fatal("expected error for unknown table")
	}
	if _, err := s.Insert(ctx, explorer.ResourceWeather, explorer.Row{"forecast": "Clear"}); err == nil {
		t.Fatal("expected error for missing columns")
	}
	if _, err := s.FindBy(ctx, explorer.ResourceWeather, "forecast; DROP TABLE weather", 1); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestMemoryStoreUniqueSearchQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	row := explorer.Location{SearchQuery: "lynnwood"}.Row()
	if _, err := s.Insert(ctx, explorer.ResourceLocations, row); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := s.Insert(ctx, explorer.ResourceLocations, row); err == nil {
		t.Fatal("expected duplicate search_query to fail")
	}
	if got := s.Count(explorer.ResourceLocations); got != 1 {
		t.Fatalf("expected 1 location, got %d", got)
	}
}
