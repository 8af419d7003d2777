// internal/counseling/normalize/search.go
package normalize

// ForSearch folds a college name or search term for substring comparison.
// Case, spacing and punctuation are dropped, so "R.V. College" and "rv college"
// fold to the same key.
func ForSearch(s string) string {
	return sanitize(s)
}
