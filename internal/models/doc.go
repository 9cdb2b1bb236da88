// Package models defines the domain value types shared across the tuneport
// migration pipeline.
//
// Types fall into three groups:
//
// 1. The export schema: [Library], [Playlist], [Track] — the normalized
// document produced by the export step and consumed by reconciliation.
// Tracks carry exactly the four fields cross-catalog matching needs.
//
// 2. Destination search results: [Candidate] — ephemeral per-query results
// from the destination catalog, never persisted.
//
// 3. The failure ledger schema: [FailureRecord] and [FailureReason] — the
// durable record of tracks that could not be matched or written.
//
// Cross-catalog equality is semantic (title, artists, duration), never id
// equality: a source id and a destination id name different catalogs.
package models
