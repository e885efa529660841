package models

// DownloadLogEntry is one record of the append-only Download Log described
// in spec.md §4.D: sequence id, canonical creation timestamp, and the
// single-line prompt associated with the downloaded artifact.
type DownloadLogEntry struct {
	SequenceID   int
	CreationTime string
	Prompt       string
}

// Separator is the exact 40-character line spec.md §6 requires between
// records in the Download Log file.
const Separator = "========================================"
