package features

import (
	"strings"

	"github.com/egresswatch/egresswatch/internal/keywords"
)

// Extension and naming heuristics applied to the raw attachments text.
// Each token contributes once regardless of how often it appears.
var (
	highRiskExtensions   = []string{".exe", ".scr", ".bat", ".cmd", ".com", ".pif", ".vbs", ".js"}
	mediumRiskExtensions = []string{".zip", ".rar", ".7z", ".doc", ".docx", ".xls", ".xlsx", ".pdf"}
	suspiciousNaming     = []string{"double extension", "hidden", "confidential", "urgent", "invoice"}
	sizeHints            = []string{"large", "big", "huge"}
)

// AttachmentRisk scores the attachments text in [0, 1]. Built-in extension
// and naming heuristics are augmented by the curated keyword list:
// suspicious keywords contribute a tenth of their weight, personal
// keywords a twentieth. The sum is capped at 1.
func AttachmentRisk(attachments string, kws []*keywords.Keyword) float64 {
	if attachments == "" {
		return 0
	}

	lower := strings.ToLower(attachments)
	risk := 0.0

	for _, ext := range highRiskExtensions {
		if strings.Contains(lower, ext) {
			risk += 0.8
		}
	}
	for _, ext := range mediumRiskExtensions {
		if strings.Contains(lower, ext) {
			risk += 0.3
		}
	}
	for _, token := range suspiciousNaming {
		if strings.Contains(lower, token) {
			risk += 0.2
		}
	}
	if containsAny(lower, sizeHints) {
		risk += 0.2
	}

	for _, k := range kws {
		if !strings.Contains(lower, strings.ToLower(k.Keyword)) {
			continue
		}
		switch k.Category {
		case keywords.CategorySuspicious:
			risk += float64(k.Weight) * 0.1
		case keywords.CategoryPersonal:
			risk += float64(k.Weight) * 0.05
		}
	}

	return min(risk, 1.0)
}
