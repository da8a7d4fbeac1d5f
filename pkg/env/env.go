// Package env reads process environment variables with fallbacks, for the
// few knobs that need resolving before config loading (log format, env name).
package env

import "os"

// Get returns the named variable, or fallback when unset or empty.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
