package usecase

import "slices"

// IsAllowed reports whether commands may run in the current environment. An
// empty whitelist allows nothing.
func IsAllowed(current string, whitelist []string) bool {
	if current == "" {
		return false
	}
	return slices.Contains(whitelist, current)
}
