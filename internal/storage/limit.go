package storage

import "github.com/julianstephens/habitkeep/internal/constants"

// ClampLimit bounds a list limit to (0, MaxListLimit]; zero or negative means the maximum.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > constants.MaxListLimit {
		return constants.MaxListLimit
	}
	return limit
}
