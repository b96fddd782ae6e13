package cache

import "strings"

// Key namespaces inside the shared device store. The cache service is
// the sole writer for these prefixes; screens and contexts must go
// through its API.
const (
	keyPrefix        = "hydrosnap:"
	profileKeyPrefix = keyPrefix + "profile:"
	pendingKeyPrefix = keyPrefix + "pending:"
)

func profileKey(userID string) string { return profileKeyPrefix + userID }
func pendingKey(userID string) string { return pendingKeyPrefix + userID }

// ownsKey reports whether a stored key belongs to this service's
// namespaces, used by the bulk clear's prefix scan.
func ownsKey(key string) bool {
	return strings.HasPrefix(key, profileKeyPrefix) || strings.HasPrefix(key, pendingKeyPrefix)
}
