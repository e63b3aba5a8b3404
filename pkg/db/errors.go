package db

import "strings"

var uniqueViolationMarkers = []string{
	"duplicate key value",      // postgres
	"UNIQUE constraint failed", // sqlite
	"Duplicate entry",          // mysql
}

// IsUniqueViolation reports whether err is a unique constraint violation on
// any supported driver. When constraintName is provided, the helper also
// requires the constraint (or column) name to appear in the message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	matched := false
	for _, marker := range uniqueViolationMarkers {
		if strings.Contains(msg, marker) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return true
}
