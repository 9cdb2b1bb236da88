// Package ui implements the interactive sync flow as a bubbletea program.
//
// The user picks a target from the loaded export (a playlist or the
// liked-songs collection, or everything), confirms, and watches progress
// updates stream in while the reconciliation runs in a goroutine. The
// result view summarizes what was added and what landed in the failure
// ledger.
package ui
