// Package backupcode manages single-use recovery codes for account recovery
// when the primary second factor is unavailable.
//
// Codes are generated from a cryptographically secure source and formatted as
// grouped alphanumerics ("x7km-2qrt-9wnp-ahj3") for transcription ease. Only
// a salted PBKDF2-SHA256 hash of each code is ever persisted; the plaintext
// exists transiently at generation time and is returned to the caller exactly
// once.
//
// Consumption is single-use under concurrency: the store contract requires an
// atomic compare-and-swap on the consumed flag, so a double submission of the
// same code validates at most once. Submissions are compared in constant time
// against every entry of the set, consumed entries included, which lets a
// coordinating layer distinguish a replayed (already spent) code from a
// mismatch without leaking which case occurred to the end user.
//
// The package never regenerates an exhausted set on its own; re-enrollment is
// an explicit, authenticated caller decision.
package backupcode
