package features

import (
	"strings"
	"time"
)

// Ingested timestamps arrive in whatever format the upstream export used.
// Known layouts are parsed properly; anything else falls back to token
// scanning. Unparsable values yield zero temporal features, never errors.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

var afterHourTokens = []string{"22:", "23:", "00:", "01:", "02:", "03:", "04:", "05:"}

// timeSignals derives the weekend and after-hours flags from the raw time
// text.
func timeSignals(raw string) (weekend, afterHours bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return false, false
	}

	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		wd := t.Weekday()
		h := t.Hour()
		return wd == time.Saturday || wd == time.Sunday, h >= 22 || h < 6
	}

	weekend = strings.Contains(strings.ToLower(s), "weekend")
	for _, token := range afterHourTokens {
		if strings.Contains(s, token) {
			afterHours = true
			break
		}
	}
	return weekend, afterHours
}
