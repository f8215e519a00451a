//go:build !cgo

package report

// go-sqlite3 compiles without cgo but fails when a database is opened.
const sqliteAvailable = false
