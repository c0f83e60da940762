// Package durationx parses the "extended duration syntax" named in spec.md
// §6 for CLI flags such as --installation-check-timeout, e.g. "10m + 30s".
// Runtime-config duration fields (backoff delays, check intervals) accept
// the same grammar so a single parser backs both.
package durationx

import (
	"fmt"
	"strings"
	"time"
)

// Parse accepts either a plain Go duration ("10m30s") or one or more
// duration terms joined by "+" ("10m + 30s"), summing the terms.
func Parse(s string) (time.Duration, error) {
	terms := strings.Split(s, "+")
	var total time.Duration
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			return 0, fmt.Errorf("invalid duration %q: empty term", s)
		}
		d, err := time.ParseDuration(term)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		total += d
	}
	return total, nil
}
