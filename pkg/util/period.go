package util

import (
	"strings"
	"time"
)

// ParsePeriod parses a fiscal period label such as "2014-12" into the first
// instant of that month in UTC. "TTM" and unrecognised labels return false.
func ParsePeriod(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
