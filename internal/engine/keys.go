package engine

import (
	"strconv"
	"strings"
)

// LogicalKey strips a trailing ordinal segment from a composite resource key:
// "svc.win-m.3" becomes "svc.win-m". Keys without one are returned as is.
func LogicalKey(key string) string {
	i := strings.LastIndexByte(key, '.')
	if _, err := strconv.Atoi(key[i+1:]); err != nil {
		return key
	}
	if i < 0 {
		return ""
	}
	return key[:i]
}

// Ordinal returns the trailing ordinal of key, if it has one.
func Ordinal(key string) (int, bool) {
	i := strings.LastIndexByte(key, '.')
	n, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IndexedKey builds the composite key for ordinal n of logical.
func IndexedKey(logical string, n int) string {
	return logical + "." + strconv.Itoa(n)
}

// HostID derives the inventory identity from a resource's primary id: the
// slash-separated segments from the fourth one on.
func HostID(id string) string {
	parts := strings.Split(id, "/")
	if len(parts) <= 3 {
		return ""
	}
	return strings.Join(parts[3:], "/")
}
