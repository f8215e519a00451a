//go:build cgo

package report

const sqliteAvailable = true
