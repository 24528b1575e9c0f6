package features_test

import (
	"math"
	"testing"

	"github.com/egresswatch/egresswatch/internal/features"
	"github.com/egresswatch/egresswatch/internal/keywords"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAttachmentRisk(t *testing.T) {
	tests := []struct {
		name        string
		attachments string
		want        float64
	}{
		{"empty", "", 0},
		{"benign name", "notes.txt", 0},
		{"high risk extension", "run.exe", 0.8},
		{"medium risk extension", "report.pdf", 0.3},
		{"suspicious naming", "urgent_readme.txt", 0.2},
		{"size hint", "large dataset.txt", 0.2},
		{"extension counted once", "a.zip b.zip c.zip", 0.3},
		{"combined", "urgent payroll.xlsx", 0.5},
		{"capped at one", "urgent confidential invoice.exe payload.vbs big.zip", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := features.AttachmentRisk(tt.attachments, nil)
			if !almostEqual(got, tt.want) {
				t.Errorf("AttachmentRisk(%q) = %v, want %v", tt.attachments, got, tt.want)
			}
		})
	}
}

func TestAttachmentRiskKeywordAugmentation(t *testing.T) {
	kws := []*keywords.Keyword{
		{Keyword: "salary", Category: keywords.CategorySuspicious, Weight: 5},
		{Keyword: "photos", Category: keywords.CategoryPersonal, Weight: 4},
		{Keyword: "report", Category: keywords.CategoryBusiness, Weight: 8},
	}

	t.Run("suspicious keyword", func(t *testing.T) {
		got := features.AttachmentRisk("salary_list.txt", kws)
		if !almostEqual(got, 0.5) {
			t.Errorf("risk = %v, want 0.5", got)
		}
	})

	t.Run("personal keyword", func(t *testing.T) {
		got := features.AttachmentRisk("holiday photos.txt", kws)
		if !almostEqual(got, 0.2) {
			t.Errorf("risk = %v, want 0.2", got)
		}
	})

	t.Run("business keyword contributes nothing", func(t *testing.T) {
		got := features.AttachmentRisk("weekly report.txt", kws)
		if !almostEqual(got, 0) {
			t.Errorf("risk = %v, want 0", got)
		}
	})

	t.Run("keyword match is case insensitive", func(t *testing.T) {
		got := features.AttachmentRisk("SALARY_2026.txt", kws)
		if !almostEqual(got, 0.5) {
			t.Errorf("risk = %v, want 0.5", got)
		}
	})
}
