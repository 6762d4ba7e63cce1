package logging

import (
	"os"
	"strings"
)

var validLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ResolveLevel picks the log level. Precedence, highest first:
//  1. explicit level (--log-level)
//  2. verbose (debug)
//  3. quiet (warn)
//  4. SHEETMATCH_LOG_LEVEL
//  5. info
//
// Invalid explicit or environment levels resolve to info. When verbose and
// quiet are both set, quiet wins.
func ResolveLevel(explicit string, verbose, quiet bool) string {
	if explicit != "" {
		return validateLevel(explicit)
	}
	if quiet {
		return "warn"
	}
	if verbose {
		return "debug"
	}
	if env := os.Getenv(EnvLogLevel); env != "" {
		return validateLevel(env)
	}
	return "info"
}

func validateLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return "warn"
	}
	if validLevels[level] {
		return level
	}
	return "info"
}
