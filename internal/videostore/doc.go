// Package videostore persists video records and week aggregates in SQLite and
// owns the processing-status state machine the ingest pipeline drives.
//
// Two record shapes exist, mirroring the two upload layouts: standalone
// per-user video documents updated with partial-field merges, and week
// aggregates holding an embedded videos array that is read, element-replaced,
// and written back under a version compare-and-swap.
package videostore
