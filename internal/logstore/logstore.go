// Package logstore abstracts where raw match logs live: a local directory
// tree for offline processing, or a remote log host reached over HTTP.
package logstore

import "context"

// Store fetches and enumerates raw match logs grouped by tournament.
type Store interface {
	// List returns the log filenames available for a tournament.
	List(ctx context.Context, tournamentID int64) ([]string, error)
	// Fetch returns the raw bytes of one log.
	Fetch(ctx context.Context, tournamentID int64, filename string) ([]byte, error)
	// Put stores a new log, overwriting any existing file of the same name.
	Put(ctx context.Context, tournamentID int64, filename string, data []byte) error
}

// NotFoundError reports a log that the store does not hold.
type NotFoundError struct {
	TournamentID int64
	Filename     string
}

func (e *NotFoundError) Error() string {
	return "log not found: " + e.Filename
}
