// Package store keeps the run ledger: one SQLite row per completed run
// with the data date, the reference table it was enriched with and the
// list of input logs.
package store
