// Package engine reduces interaction-calculus terms to normal form.
//
// The engine applies a fixed rule table at the leftmost-outermost redex,
// one rule per step, until no redex remains or the configured step bound
// is exceeded. Determinism is the central contract: the same input term
// always yields the same normal form, the same rule sequence, and the
// same fresh-name allocation order, which is what makes traces
// replayable and golden-file tests meaningful.
//
// Each Engine owns one monotonic clock used for fresh names and fresh
// labels. Fresh identifiers carry a "$" prefix that surface syntax
// cannot produce, so generated names never collide with user names.
// There is no hidden global state: two engines reduce independently,
// which keeps test suites safely parallel.
//
// Evaluation is single-threaded and synchronous. Rules rewrite immutable
// terms; no rule performs I/O.
package engine
