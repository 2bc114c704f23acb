// Package identity resolves the durable local participant profile: a stable
// id, a display name, and a locale preference.
package identity

// Storage is a durable string key-value store, the daemon's equivalent of
// browser localStorage. Get returns "" for a missing key.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}
