// Package cache holds the small in-process caches used between the
// spreadsheet and the dashboard.
package cache

import "time"

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
}

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time
