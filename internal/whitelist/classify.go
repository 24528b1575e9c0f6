package whitelist

import (
	"regexp"
	"strings"
)

// Domain classification categories.
const (
	ClassCorporate  = "Corporate"
	ClassPersonal   = "Personal"
	ClassPublic     = "Public"
	ClassSuspicious = "Suspicious"
	ClassUnknown    = "Unknown"
)

// Categories are checked most-specific first so a public mail provider is
// never swallowed by the generic corporate TLD patterns.
var classPatterns = []struct {
	class    string
	patterns []*regexp.Regexp
}{
	{ClassSuspicious, compileAll(
		`\.tk$`, `\.ml$`, `\.ga$`, `\.cf$`, `temp.*\.com$`,
		`10minutemail\.`, `guerrillamail\.`, `mailinator\.`,
	)},
	{ClassPublic, compileAll(
		`gmail\.com$`, `yahoo\.com$`, `hotmail\.com$`, `outlook\.com$`,
		`live\.com$`, `msn\.com$`, `ymail\.com$`,
	)},
	{ClassPersonal, compileAll(
		`aol\.com$`, `icloud\.com$`, `protonmail\.com$`,
	)},
	{ClassCorporate, compileAll(
		`\.com$`, `\.corp$`, `\.org$`, `\.gov$`, `\.edu$`,
	)},
}

var corporateTokens = []string{"company", "corp", "enterprise", "business"}

// Classify buckets a domain into a coarse reputation category.
func Classify(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return ClassUnknown
	}

	for _, c := range classPatterns {
		for _, p := range c.patterns {
			if p.MatchString(domain) {
				return c.class
			}
		}
	}

	for _, token := range corporateTokens {
		if strings.Contains(domain, token) {
			return ClassCorporate
		}
	}

	// A bare two-label domain on an uncommon TLD is treated as suspicious.
	if len(strings.Split(domain, ".")) == 2 &&
		!strings.HasSuffix(domain, ".com") &&
		!strings.HasSuffix(domain, ".org") &&
		!strings.HasSuffix(domain, ".net") {
		return ClassSuspicious
	}

	return ClassCorporate
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}
