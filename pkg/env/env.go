// Package env reads the few settings needed before config.Load runs, such as
// the log format of the bootstrap logger.
package env

import (
	"os"
	"strconv"
	"strings"
)

// Prefix namespaces every BazaarLink variable.
const Prefix = "BAZAARLINK"

// Get returns BAZAARLINK_<key>, falling back to the bare <key> and then to
// fallback. Blank values count as unset.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + "_" + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}

// Bool is Get parsed with strconv.ParseBool; unparsable values yield fallback.
func Bool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(Get(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}
