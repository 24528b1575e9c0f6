// Package keywords manages the attachment keyword list used to augment
// attachment risk scoring. Keywords are operator-curated and categorized;
// the feature extractor consumes them through the Provider interface.
package keywords

import "context"

// Keyword categories.
const (
	CategoryBusiness   = "Business"
	CategoryPersonal   = "Personal"
	CategorySuspicious = "Suspicious"
)

// Keyword is one attachment-name token with a 1-10 risk weight.
type Keyword struct {
	ID       int64  `json:"id" yaml:"-"`
	Keyword  string `json:"keyword" yaml:"keyword"`
	Category string `json:"category" yaml:"category"`
	Weight   int    `json:"risk_score" yaml:"risk_score"`
	Active   bool   `json:"active" yaml:"-"`
}

// Provider supplies the active keyword list to the feature extractor.
type Provider interface {
	Active(ctx context.Context) ([]*Keyword, error)
}

// Store extends Provider with management operations.
type Store interface {
	Provider

	Upsert(ctx context.Context, k *Keyword) (*Keyword, error)
	Deactivate(ctx context.Context, keyword string) error
}
