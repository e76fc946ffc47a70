// Package storage provides the durable key-value substrate the tracker
// persists its collections into.
//
// The contract is deliberately small: three fixed keys, one serialized
// collection per key, whole-value writes. The tracker reads each key once at
// startup and rewrites a key every time its collection changes.
package storage

import "context"

// Fixed keys, one per record collection.
const (
	KeyGroups      = "mf_groups"
	KeyMembers     = "mf_members"
	KeyCollections = "mf_collections"
)

// KV is a durable text store addressed by key.
type KV interface {
	// Get returns the value under key, with ok false when the key is
	// absent. Absence is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set durably writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Close releases underlying resources.
	Close() error
}
