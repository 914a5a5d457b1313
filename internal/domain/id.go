package domain

import "github.com/oklog/ulid/v2"

// NewID returns a ULID string. IDs minted by one process sort in creation
// order, which the feeds use as the final tie-break.
func NewID() string {
	return ulid.Make().String()
}
