// Package cache stores computed validation results and plan drafts in an
// embedded BadgerDB with per-entry TTL.
//
// Keys are "validation:{planId}" for results and "draft:{planId}" for the
// ephemeral draft blob. Entries expire on their own; Invalidate removes a
// result immediately so the next read recomputes.
package cache
