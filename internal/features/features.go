// Package features converts records into the fixed-order numeric vectors
// consumed by the anomaly scorer, and provides the shared attachment and
// domain risk heuristics the risk fusion stage reuses.
package features

import (
	"context"
	"log/slog"
	"strings"

	"github.com/egresswatch/egresswatch/internal/keywords"
	"github.com/egresswatch/egresswatch/internal/records"
)

// Feature vector column indexes. The order is load-bearing: the anomaly
// scorer standardizes per column and the risk engine reads factors back
// out by index.
const (
	IdxSubjectLen = iota
	IdxHasAttachments
	IdxWordlistMatch
	IdxPublicDomain
	IdxDisposableDomain
	IdxWeekend
	IdxAfterHours
	IdxLeaver
	IdxAttachmentRisk
	IdxJustificationLen
	IdxHasJustification

	// Dim is the feature vector length.
	Dim
)

// publicProviders are consumer mail domains treated as higher-risk
// destinations in an all-external traffic model.
var publicProviders = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}

// disposableProviders are throwaway mail services.
var disposableProviders = []string{"tempmail", "guerrillamail", "10minutemail", "mailinator"}

// Extractor builds feature vectors. The keyword provider augments
// attachment risk with the operator-curated list; a provider failure
// degrades to the built-in heuristics rather than failing the batch.
type Extractor struct {
	keywords keywords.Provider
	logger   *slog.Logger
}

// NewExtractor creates a feature extractor.
func NewExtractor(provider keywords.Provider, logger *slog.Logger) *Extractor {
	return &Extractor{
		keywords: provider,
		logger:   logger.With("system", "features"),
	}
}

// Vectors extracts one vector per record, preserving order.
func (e *Extractor) Vectors(ctx context.Context, recs []*records.Record) [][]float64 {
	kws, err := e.keywords.Active(ctx)
	if err != nil {
		e.logger.Warn("keyword list unavailable, using built-in heuristics only", "error", err)
		kws = nil
	}

	out := make([][]float64, len(recs))
	for i, rec := range recs {
		out[i] = Vector(rec, kws)
	}
	return out
}

// Vector extracts the 11-dimension feature vector for one record.
func Vector(rec *records.Record, kws []*keywords.Keyword) []float64 {
	domain := strings.ToLower(rec.RecipientDomain)
	weekend, afterHours := timeSignals(rec.Time)

	return []float64{
		float64(len(rec.Subject)),
		boolFeature(rec.Attachments != ""),
		boolFeature(rec.WordlistAttachment != "" || rec.WordlistSubject != ""),
		boolFeature(PublicDomain(domain)),
		boolFeature(DisposableDomain(domain)),
		boolFeature(weekend),
		boolFeature(afterHours),
		boolFeature(IsLeaver(rec.Leaver)),
		AttachmentRisk(rec.Attachments, kws),
		float64(len(rec.Justification)),
		boolFeature(rec.Justification != ""),
	}
}

// PublicDomain reports whether the domain belongs to a consumer mail
// provider.
func PublicDomain(domain string) bool {
	return containsAny(strings.ToLower(domain), publicProviders)
}

// DisposableDomain reports whether the domain belongs to a throwaway mail
// service.
func DisposableDomain(domain string) bool {
	return containsAny(strings.ToLower(domain), disposableProviders)
}

// IsLeaver interprets the ingested leaver flag.
func IsLeaver(leaver string) bool {
	switch strings.ToLower(strings.TrimSpace(leaver)) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
