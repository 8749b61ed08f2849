// Package history keeps an optional SQLite ledger of finished burn jobs.
//
// The ledger records outcomes only: which settings a job used, how it ended,
// and how long it took. It never stores session state and is not consulted on
// startup. Recorder plugs the ledger into the session manager as a job
// observer and trims old rows so the file stays bounded.
package history
