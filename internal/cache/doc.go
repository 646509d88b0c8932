// Package cache provides a file-based cache for optimizer results.
//
// Cache entries are keyed by a BLAKE3 hash of the token encoding, budget,
// hunk-recount flag and redacted diff content. Each entry is a JSON record
// (response, creation timestamp, TTL in seconds) compressed with zstd.
// Expired entries are skipped and removed on read.
//
// The default cache directory is $XDG_CACHE_HOME/diffbudget (or the
// OS-appropriate equivalent).
package cache
