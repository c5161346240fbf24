// Parsers for the compact text encodings found in Slurm accounting exports: durations, memory
// requests, usage byte sizes, resource allocation lists and timestamps.
//
// Every parser is pure and total: malformed input yields mo.None, never an error or a panic, so a
// dirty field costs only that field and never the row or the batch.  The grammars are hand-written
// scanners rather than regular expressions so that trailing garbage and similar near-misses are
// rejected instead of being silently mis-parsed.

package slurmfmt
