// Package cli wires together the Cobra command tree for the diffbudget binary.
//
// It defines the root command and all subcommands (parse, chunk, optimize,
// tokens, lang, config, models, cache, hook, version), binds flags, reads
// configuration, selects the diff source, and returns deterministic exit
// codes for CI gating and git hooks.
package cli
