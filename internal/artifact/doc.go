// Package artifact resolves and validates the per-feature artifact layout.
//
// Every feature directory holds the same fixed set of artifacts (spec.md,
// plan.md, research.md, data-model.md, contracts/, quickstart.md, tasks.md).
// The resolver maps a feature to those paths without touching the
// filesystem, so paths are available before the directory exists; validation
// and prerequisite checks query existence live and never write. Artifact
// creation belongs to the template provider.
package artifact
