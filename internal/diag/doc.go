// Package diag defines the diagnostic model shared by the template parser
// and lint rules.
//
// Diagnostic is the central record: severity, a compact numeric Code with a
// stable string ID, a human message, the primary source span, optional
// notes, and optional Fix records describing automated corrections as
// concrete text edits.
//
// Producers emit through the Reporter interface so they stay decoupled from
// storage and formatting. BagReporter aggregates into a Bag, which supports
// sorting, deduplication, filtering and merging; DedupReporter drops exact
// duplicates before they reach storage.
//
// The package performs no IO and no formatting. Rendering lives in
// internal/diagfmt; applying fixes lives in internal/fix. Keep the data
// model deterministic so diagnostics can be serialised for caching and
// golden tests.
package diag
