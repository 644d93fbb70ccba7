// Package sanitizer normalizes user input before validation and storage.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input is never an error here; it is returned in
// a form the validators will reject.
//
// Normalization includes:
//   - Names and cities: trim and collapse internal whitespace
//   - Emails: trim and lowercase, so lock ownership compares exactly
//   - Seats: drop duplicates and sort ascending
//   - Card data: keep digits only
package sanitizer
