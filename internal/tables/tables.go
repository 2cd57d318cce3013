// Package tables registers all table definitions with the table registry.
// Import this package for its side effects to make the tables available.
package tables
