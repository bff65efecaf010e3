// Package storage persists the last successfully extracted prayer times record for
// each date as JSON files in a local data directory.
//
// The service layer serves a stored record when a later upstream fetch for the
// same date fails, before resorting to static fallback times.
package storage
