// Package tasks parses task-list artifacts into structured items.
//
// The grammar is line-oriented: a checkbox ("- [ ]" pending, "- [x]" or
// "- [X]" complete), an optional task identifier (bare "T001" or
// bracketed "[T001]"), an optional "[P]" parallel-eligibility marker, and
// free text. Lines without an explicit identifier receive a synthetic
// sequential one. Items are never persisted; every read re-parses the
// artifact, which is the source of truth over any cached counts.
//
// The Watcher re-parses on file change and emits fresh progress, with
// event bursts coalesced through a rate limiter.
package tasks
