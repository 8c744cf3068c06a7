// Package nlp wraps the external classifier and keyword-extractor
// collaborators behind small adapter interfaces. The models behind them are
// expensive to load, so implementations are long-lived handles injected into
// the pipeline once at startup.
package nlp

import (
	"context"

	"github.com/napphq/napp/pkg/types"
)

// CategoryClassifier assigns one of the fixed category ids to a text.
// Deterministic for a given model version; no stability guaranteed across
// model versions.
type CategoryClassifier interface {
	Classify(ctx context.Context, text string) (int64, error)
}

// KeywordExtractor derives the entity/keyword set for a text. May return an
// empty set; numeric, date and quantity entity classes are excluded by the
// extractor's own policy. Callers handle the empty case with FallbackTokens.
type KeywordExtractor interface {
	Extract(ctx context.Context, text string) (types.KeywordSet, error)
}
