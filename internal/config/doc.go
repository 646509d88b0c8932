// Package config loads and merges diffbudget configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (DIFFBUDGET_MODEL, DIFFBUDGET_MAX_TOKENS, etc.)
//  3. Config file ($XDG_CONFIG_HOME/diffbudget/config.yaml, config.yml or
//     config.json, or the file named by DIFFBUDGET_CONFIG)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
