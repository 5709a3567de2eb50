// Package term provides the term model for the interaction calculus.
//
// This package contains type definitions plus the pure operations on them
// (substitution, printing, canonical serialization, hashing). All other
// internal packages import term; term imports nothing internal. This keeps
// the term model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Terms are immutable: every operation returns a new term
//   - NO float types anywhere - numbers are int64 (floats break
//     deterministic hashing)
//   - The "$" name prefix is reserved for engine-generated names and
//     labels; surface syntax can never produce it
package term
