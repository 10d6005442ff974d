// Package uuidutil derives the offline-mode player UUID lazymc hands out
// in the fake lobby, matching what a backend running in offline mode
// would assign the same username so a client's identity is stable
// across the synthesised login and the eventual real one.
package uuidutil

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// offlinePlayerPrefix is the literal string Mojang's offline-mode server
// hashes usernames against.
const offlinePlayerPrefix = "OfflinePlayer:"

// Offline derives the MD5-based (version 3) UUID for username, byte for
// byte identical to what a vanilla server in offline mode computes via
// Java's UUID.nameUUIDFromBytes: an MD5 digest of the literal bytes
// "OfflinePlayer:<name>" with no namespace prefix, version/variant bits
// set per RFC 4122 afterwards.
func Offline(username string) uuid.UUID {
	sum := md5.Sum([]byte(offlinePlayerPrefix + username))
	sum[6] = (sum[6] & 0x0f) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3f) | 0x80 // RFC 4122 variant
	return uuid.UUID(sum)
}
