// Package redact removes secrets from parsed diffs before they leave the
// machine.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS keys, bearer tokens, credentials in connection
// URLs and provider-specific tokens.
//
// Path-based redaction is also supported: files whose paths match configured
// doublestar patterns have every line replaced with [REDACTED] rather than
// being scanned line by line.
package redact
