package whitelist_test

import (
	"testing"

	"github.com/egresswatch/egresswatch/internal/records"
	"github.com/egresswatch/egresswatch/internal/whitelist"
)

func TestMatches(t *testing.T) {
	whitelisted := []string{"corp.example", "Partner.Example"}

	tests := []struct {
		name   string
		domain string
		want   bool
	}{
		{"exact", "corp.example", true},
		{"exact case insensitive", "CORP.EXAMPLE", true},
		{"subdomain suffix", "mail.corp.example", true},
		{"whitelist is subdomain of record", "example", true},
		{"substring containment", "corp.example.mx", true},
		{"whitelisted entry normalized", "partner.example", true},
		{"no relation", "attacker.net", false},
		{"empty domain", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := whitelist.Matches(tt.domain, whitelisted)
			if got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.domain, got, tt.want)
			}
		})
	}
}

func TestMatchesReturnsMatchedDomain(t *testing.T) {
	matched, ok := whitelist.Matches("mail.corp.example", []string{"other.example", "corp.example"})
	if !ok || matched != "corp.example" {
		t.Errorf("Matches() = %q, %v; want corp.example, true", matched, ok)
	}
}

func TestApply(t *testing.T) {
	recs := []*records.Record{
		{RecordID: "r1", RecipientDomain: "corp.example"},
		{RecordID: "r2", RecipientDomain: "corp.example", ExcludedByRule: "newsletter"},
		{RecordID: "r3", RecipientDomain: "gmail.com"},
		{RecordID: "r4", RecipientDomain: "mail.corp.example", Whitelisted: true},
	}
	entries := []*whitelist.Entry{
		{Domain: "corp.example", Active: true},
	}

	marked := whitelist.Apply(recs, entries)

	if marked != 1 {
		t.Fatalf("marked = %d, want 1", marked)
	}
	if !recs[0].Whitelisted {
		t.Error("matching record not whitelisted")
	}
	if recs[1].Whitelisted {
		t.Error("excluded record was whitelisted")
	}
	if recs[2].Whitelisted {
		t.Error("non-matching record was whitelisted")
	}
}

func TestApplyNoEntries(t *testing.T) {
	recs := []*records.Record{{RecordID: "r1", RecipientDomain: "corp.example"}}
	if marked := whitelist.Apply(recs, nil); marked != 0 {
		t.Errorf("marked = %d, want 0", marked)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"gmail.com", whitelist.ClassPublic},
		{"YAHOO.COM", whitelist.ClassPublic},
		{"icloud.com", whitelist.ClassPersonal},
		{"mailinator.com", whitelist.ClassSuspicious},
		{"tempinbox.com", whitelist.ClassSuspicious},
		{"evil.tk", whitelist.ClassSuspicious},
		{"corp.example.com", whitelist.ClassCorporate},
		{"agency.gov", whitelist.ClassCorporate},
		{"mycompany.io", whitelist.ClassCorporate},
		{"random.xyz", whitelist.ClassSuspicious},
		{"", whitelist.ClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			if got := whitelist.Classify(tt.domain); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.domain, got, tt.want)
			}
		})
	}
}
