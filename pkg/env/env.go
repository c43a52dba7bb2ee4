// Package env reads ad-hoc environment switches that sit outside the typed
// config, such as the logger's output format at bootstrap.
package env

import "os"

const prefix = "PROCUREFLOW_"

// Get returns the value of the named variable, preferring the prefixed form
// (PROCUREFLOW_<key>) so switches follow the same convention as the typed
// config, then the bare name, then the fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(prefix + key); val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
