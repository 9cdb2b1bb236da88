// package tasks implements the reconciliation pipeline that moves an
// exported library into the destination catalog.
//
// The core abstraction is [SyncEngine], which walks each target (a playlist
// or the liked-songs collection) through four phases: locate or create the
// destination playlist, resolve every exported track to a destination id,
// diff the resolved ids against the playlist's current members, and apply
// only the missing ones. Because every phase works from current destination
// state, a rerun after a partial failure adds only what is still absent.
//
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers. Tracks that cannot be resolved or written are
// collected as failure records for the ledger; they never abort a run.
package tasks
