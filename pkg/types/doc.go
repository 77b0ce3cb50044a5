// Package types defines the column, row, settings and query types, the
// DataService contract, and the standard errors for the gridline table engine.
package types
