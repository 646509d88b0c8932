// Package lang maps file paths to language names by extension and picks the
// dominant language for a group of paths. The names are passed downstream as
// prompt hints, so they are human-readable rather than canonical identifiers.
package lang
