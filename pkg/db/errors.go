package db

import "strings"

// IsUniqueViolation reports whether the error is a unique constraint
// violation. Optional fragments narrow the match to a specific constraint;
// Postgres reports the index name while sqlite reports table.column, so call
// sites pass both spellings.
func IsUniqueViolation(err error, fragments ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	unique := strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if len(fragments) == 0 {
		return true
	}
	for _, fragment := range fragments {
		if fragment != "" && strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
