// Package sanitizer normalizes customer and floor input before validation
// and storage.
//
// All functions are idempotent. Invalid input is returned as an empty
// string rather than an error; the validators decide whether an empty
// value is acceptable.
//
// Normalization includes:
//   - Phone numbers: E.164 format, parsed against a configured list of regions
//   - Strings: collapsed whitespace, trimmed
//   - Emails: trimmed and lowercased
//   - Slices: duplicates and empty values removed, order preserved
package sanitizer
