package shared

import "context"

// Searchable exposes the fields the list search and category gates read.
type Searchable interface {
	// SearchFields are matched case-insensitively.
	SearchFields() []string
	// Contact is matched as a literal, case-sensitive substring.
	Contact() string
	FilterCategory() string
}

// Record is a backend-owned entity whose mutable fields form the draft D.
type Record[R any, D any] interface {
	Searchable
	Key() string
	WithKey(id string) R
	Draft() D
	Title() string
}

// EntityClient is the REST surface a List drives.
type EntityClient[R any, D any] interface {
	List(ctx context.Context) ([]R, error)
	Create(ctx context.Context, draft D) (R, error)
	Update(ctx context.Context, id string, draft D) (R, error)
	Delete(ctx context.Context, id string) error
}
