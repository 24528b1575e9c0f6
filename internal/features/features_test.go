package features_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/egresswatch/egresswatch/internal/features"
	"github.com/egresswatch/egresswatch/internal/keywords"
	"github.com/egresswatch/egresswatch/internal/records"
)

type fakeProvider struct {
	kws []*keywords.Keyword
	err error
}

func (p *fakeProvider) Active(ctx context.Context) ([]*keywords.Keyword, error) {
	return p.kws, p.err
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestVectorLayout(t *testing.T) {
	rec := &records.Record{
		Subject:         "Payroll export",
		Attachments:     "salaries.xlsx",
		WordlistSubject: "payroll",
		RecipientDomain: "gmail.com",
		Time:            "2026-08-22 23:15:00", // a Saturday, after hours
		Leaver:          "Yes",
		Justification:   "personal backup",
	}

	v := features.Vector(rec, nil)

	if len(v) != features.Dim {
		t.Fatalf("vector length = %d, want %d", len(v), features.Dim)
	}

	checks := []struct {
		name string
		idx  int
		want float64
	}{
		{"subject length", features.IdxSubjectLen, float64(len(rec.Subject))},
		{"has attachments", features.IdxHasAttachments, 1},
		{"wordlist match", features.IdxWordlistMatch, 1},
		{"public domain", features.IdxPublicDomain, 1},
		{"disposable domain", features.IdxDisposableDomain, 0},
		{"weekend", features.IdxWeekend, 1},
		{"after hours", features.IdxAfterHours, 1},
		{"leaver", features.IdxLeaver, 1},
		{"justification length", features.IdxJustificationLen, float64(len(rec.Justification))},
		{"has justification", features.IdxHasJustification, 1},
	}
	for _, c := range checks {
		if v[c.idx] != c.want {
			t.Errorf("%s: v[%d] = %v, want %v", c.name, c.idx, v[c.idx], c.want)
		}
	}
	if v[features.IdxAttachmentRisk] <= 0 {
		t.Errorf("attachment risk = %v, want > 0", v[features.IdxAttachmentRisk])
	}
}

func TestVectorZeroRecord(t *testing.T) {
	v := features.Vector(&records.Record{}, nil)
	for i, f := range v {
		if f != 0 {
			t.Errorf("v[%d] = %v, want 0 for empty record", i, f)
		}
	}
}

func TestVectorsDegradeWithoutKeywords(t *testing.T) {
	ext := features.NewExtractor(&fakeProvider{err: errors.New("db down")}, discard())

	recs := []*records.Record{
		{Subject: "a", Attachments: "confidential.zip"},
		{Subject: "bb"},
	}
	vectors := ext.Vectors(context.Background(), recs)

	if len(vectors) != 2 {
		t.Fatalf("vectors = %d, want 2", len(vectors))
	}
	if vectors[0][features.IdxAttachmentRisk] <= 0 {
		t.Error("built-in heuristics should still score without keywords")
	}
}

func TestDomainHelpers(t *testing.T) {
	tests := []struct {
		domain     string
		public     bool
		disposable bool
	}{
		{"gmail.com", true, false},
		{"GMAIL.COM", true, false},
		{"mail.yahoo.com", true, false},
		{"mailinator.com", false, true},
		{"10minutemail.net", false, true},
		{"corp.example", false, false},
	}

	for _, tt := range tests {
		if got := features.PublicDomain(tt.domain); got != tt.public {
			t.Errorf("PublicDomain(%q) = %v, want %v", tt.domain, got, tt.public)
		}
		if got := features.DisposableDomain(tt.domain); got != tt.disposable {
			t.Errorf("DisposableDomain(%q) = %v, want %v", tt.domain, got, tt.disposable)
		}
	}
}

func TestIsLeaver(t *testing.T) {
	for _, yes := range []string{"yes", "YES", " Yes ", "true", "1"} {
		if !features.IsLeaver(yes) {
			t.Errorf("IsLeaver(%q) = false, want true", yes)
		}
	}
	for _, no := range []string{"", "no", "false", "0", "none"} {
		if features.IsLeaver(no) {
			t.Errorf("IsLeaver(%q) = true, want false", no)
		}
	}
}

func TestTemporalSignalsFallback(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		weekend    bool
		afterHours bool
	}{
		{"parsed weekday business hours", "2026-08-19 10:30:00", false, false},
		{"parsed sunday", "2026-08-23T14:00:00", true, false},
		{"parsed late night", "2026-08-19 02:10:00", false, true},
		{"token fallback weekend", "sent over the weekend", true, false},
		{"token fallback after hours", "around 23:40 local", false, true},
		{"empty", "", false, false},
		{"garbage", "sometime", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := features.Vector(&records.Record{Time: tt.raw}, nil)
			if got := v[features.IdxWeekend] == 1; got != tt.weekend {
				t.Errorf("weekend = %v, want %v", got, tt.weekend)
			}
			if got := v[features.IdxAfterHours] == 1; got != tt.afterHours {
				t.Errorf("afterHours = %v, want %v", got, tt.afterHours)
			}
		})
	}
}
