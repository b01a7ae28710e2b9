package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/i474232898/city-explorer/internal/explorer"
)

// memoryTable holds insert-ordered rows for one table.
type memoryTable struct {
	nextID int64
	rows   []explorer.Row
}

// MemoryStore is a concurrency-safe in-memory implementation of explorer.Store.
// It enforces the same table and column names as the SQL store but no foreign keys.
type MemoryStore struct {
	mu sync.RWMutex

	// key: table name
	tables map[explorer.ResourceType]*memoryTable
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[explorer.ResourceType]*memoryTable),
	}
}

// Insert appends a copy of row and returns it with the assigned id.
func (s *MemoryStore) Insert(ctx context.Context, table explorer.ResourceType, row explorer.Row) (explorer.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cols := explorer.Columns(table)
	if cols == nil {
		return nil, fmt.Errorf("insert: unknown table %q", table)
	}

	stored := make(explorer.Row, len(cols)+1)
	for _, c := range cols {
		v, ok := row[c]
		if !ok {
			return nil, fmt.Errorf("insert %s: missing column %q", table, c)
		}
		stored[c] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[table]
	if !ok {
		t = &memoryTable{}
		s.tables[table] = t
	}

	if table == explorer.ResourceLocations {
		for _, existing := range t.rows {
			if existing["search_query"] == stored["search_query"] {
				return nil, fmt.Errorf("insert %s: duplicate search_query %v", table, stored["search_query"])
			}
		}
	}

	t.nextID++
	stored["id"] = t.nextID
	t.rows = append(t.rows, stored)

	return stored.Clone(), nil
}

// FindBy returns copies of every row whose column equals value.
func (s *MemoryStore) FindBy(ctx context.Context, table explorer.ResourceType, column string, value any) ([]explorer.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !explorer.HasColumn(table, column) {
		return nil, fmt.Errorf("find: unknown column %s.%s", table, column)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[table]
	if !ok {
		return nil, nil
	}

	var result []explorer.Row
	for _, row := range t.rows {
		if equalValues(row[column], value) {
			result = append(result, row.Clone())
		}
	}
	return result, nil
}

// Count returns the number of rows in table.
func (s *MemoryStore) Count(table explorer.ResourceType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[table]
	if !ok {
		return 0
	}
	return len(t.rows)
}

// equalValues compares loosely on integer width so int and int64 ids match.
func equalValues(a, b any) bool {
	ai, aok := asInt64(a)
	bi, bok := asInt64(b)
	if aok && bok {
		return ai == bi
	}
	return a == b
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
