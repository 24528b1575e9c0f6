// Package whitelist implements trusted-domain filtering. Whitelisted
// records stay visible in session results but are skipped by the security
// rule and scoring stages.
package whitelist

import (
	"strings"
	"time"

	"github.com/egresswatch/egresswatch/internal/records"
)

// Entry is one whitelisted domain.
type Entry struct {
	ID      int64     `json:"id"`
	Domain  string    `json:"domain"`
	Type    string    `json:"domain_type,omitempty"`
	Active  bool      `json:"active"`
	AddedBy string    `json:"added_by,omitempty"`
	Notes   string    `json:"notes,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Matches reports whether a recipient domain matches any whitelisted
// domain, and which one. Matching is deliberately loose: exact equality,
// dotted-suffix match in either direction, or substring containment in
// either direction. The looseness is a documented operational heuristic
// for messy ingested domain values; do not tighten it without reviewing
// the ingestion sources.
func Matches(domain string, whitelisted []string) (string, bool) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "", false
	}

	for _, w := range whitelisted {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if domain == w ||
			strings.HasSuffix(domain, "."+w) ||
			strings.HasSuffix(w, "."+domain) ||
			strings.Contains(domain, w) ||
			strings.Contains(w, domain) {
			return w, true
		}
	}
	return "", false
}

// Apply marks non-excluded records whose recipient domain matches the
// whitelist. Already-excluded records are left untouched. Returns the
// number of records marked.
func Apply(recs []*records.Record, entries []*Entry) int {
	domains := make([]string, 0, len(entries))
	for _, e := range entries {
		domains = append(domains, e.Domain)
	}
	if len(domains) == 0 {
		return 0
	}

	marked := 0
	for _, rec := range recs {
		if rec.Excluded() || rec.Whitelisted {
			continue
		}
		if _, ok := Matches(rec.RecipientDomain, domains); ok {
			rec.Whitelisted = true
			marked++
		}
	}
	return marked
}
