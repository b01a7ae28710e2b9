package explorer

import (
	"context"
	"net/http"
)

// Adapter knows how to talk to one provider and map its replies onto one resource type.
type Adapter interface {
	Resource() ResourceType
	// BuildRequest describes the outbound provider call for q.
	BuildRequest(q Query) (*http.Request, error)
	// Parse maps a raw provider reply onto canonical records. It returns
	// ErrMalformedPayload when expected fields are absent, and ErrProviderUnavailable
	// when a 2xx reply reports a provider-side failure.
	Parse(q Query, raw []byte) ([]Record, error)
	// Decode maps a stored row back onto a record.
	Decode(row Row) (Record, error)
}

// Fetcher executes provider requests and returns the response body of a 2xx reply.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request) ([]byte, error)
}

// Store is the persistence contract shared by the SQL and in-memory stores.
type Store interface {
	// FindBy returns every row of table whose column equals value, in insert order.
	FindBy(ctx context.Context, table ResourceType, column string, value any) ([]Row, error)
	// Insert appends row to table and returns it with its assigned "id".
	Insert(ctx context.Context, table ResourceType, row Row) (Row, error)
}
