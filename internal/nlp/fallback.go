package nlp

import (
	"context"
	"regexp"
	"strings"

	"github.com/napphq/napp/pkg/types"
)

var (
	punctBefore = regexp.MustCompile(`\s\W`)
	punctAfter  = regexp.MustCompile(`\W\s`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// NormalizeText lower-cases the text and strips stray punctuation and
// repeated whitespace, matching what the classifier model was trained on.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = punctBefore.ReplaceAllString(s, " ")
	s = punctAfter.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FallbackTokens is the degenerate-input path: a naive whitespace split of
// the headline, used when extraction yields nothing so the correlator can
// still form an event. It never returns an empty set for non-blank text.
func FallbackTokens(text string) types.KeywordSet {
	return types.NewKeywordSet(strings.Fields(NormalizeText(text))...)
}

// TermClassifier is a local classifier implementation driven by per-category
// term lists. A text matches a category when any of its unigrams, bigrams or
// trigrams appears in that category's term list; the first match in id order
// wins, and DefaultCategory is returned otherwise.
//
// It stands in for the external model when no sidecar is configured, and
// mirrors the term-override pass the production model applies for the
// environment, lgbt and youth categories.
type TermClassifier struct {
	// Terms maps category ids to their term lists, normalized at build time.
	terms map[int64]map[string]struct{}

	// order lists the category ids to probe, lowest first.
	order []int64

	// DefaultCategory is returned when no term list matches.
	DefaultCategory int64
}

// NewTermClassifier builds a TermClassifier from per-category term lists.
// Terms are lower-cased; multi-word terms match against bigrams/trigrams.
func NewTermClassifier(terms map[int64][]string, defaultCategory int64) *TermClassifier {
	tc := &TermClassifier{
		terms:           make(map[int64]map[string]struct{}, len(terms)),
		DefaultCategory: defaultCategory,
	}
	for id, list := range terms {
		set := make(map[string]struct{}, len(list))
		for _, t := range list {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				set[t] = struct{}{}
			}
		}
		tc.terms[id] = set
		tc.order = append(tc.order, id)
	}
	// Sort ids so the probe order is deterministic.
	for i := 0; i < len(tc.order); i++ {
		for j := i + 1; j < len(tc.order); j++ {
			if tc.order[j] < tc.order[i] {
				tc.order[i], tc.order[j] = tc.order[j], tc.order[i]
			}
		}
	}
	return tc
}

// Classify returns the first category whose term list matches the text.
func (tc *TermClassifier) Classify(_ context.Context, text string) (int64, error) {
	grams := ngrams(NormalizeText(text))
	for _, id := range tc.order {
		set := tc.terms[id]
		for _, g := range grams {
			if _, ok := set[g]; ok {
				return id, nil
			}
		}
	}
	return tc.DefaultCategory, nil
}

// ngrams returns the unigrams, bigrams and trigrams of the normalized text.
func ngrams(s string) []string {
	words := strings.Fields(s)
	grams := make([]string, 0, 3*len(words))
	grams = append(grams, words...)
	for i := 0; i+1 < len(words); i++ {
		grams = append(grams, words[i]+" "+words[i+1])
	}
	for i := 0; i+2 < len(words); i++ {
		grams = append(grams, words[i]+" "+words[i+1]+" "+words[i+2])
	}
	return grams
}

// DefaultTerms returns the built-in term lists for the categories that are
// matched by terms rather than by the model. The real deployments extend
// these from curated CSVs; this subset keeps the override pass working
// without them.
func DefaultTerms() map[int64][]string {
	return map[int64][]string{
		types.CategoryEnvironment: {
			"climate", "climate change", "global warming", "emissions",
			"renewable", "wildlife", "pollution", "recycling", "deforestation",
			"extinction rebellion", "carbon", "fossil fuels",
		},
		types.CategoryLGBT: {
			"lgbt", "lgbtq", "gay", "lesbian", "transgender", "bisexual",
			"pride", "same-sex", "queer",
		},
		types.CategoryYouth: {
			"youth", "teenager", "teenagers", "students", "school pupils",
			"young people", "gcse", "a-level", "university applicants",
		},
	}
}

// HeadlineExtractor is a local extractor implementation that keeps the
// capitalized tokens of a headline — presumably the most meaningful ones.
// It stands in for the external entity extractor when no sidecar is
// configured.
type HeadlineExtractor struct{}

// Extract returns the capitalized tokens of the text, lower-cased into a
// keyword set. May return an empty set (e.g. all-lowercase text); callers
// apply FallbackTokens in that case, same as for the real extractor.
func (HeadlineExtractor) Extract(_ context.Context, text string) (types.KeywordSet, error) {
	var tokens []string
	for _, w := range strings.Fields(text) {
		trimmed := strings.Trim(w, `"'.,:;!?()[]`)
		if trimmed == "" {
			continue
		}
		r := []rune(trimmed)
		if r[0] >= 'A' && r[0] <= 'Z' {
			tokens = append(tokens, trimmed)
		}
	}
	// The pandemic keyword is significant however it is written; keep it
	// even when lowercase so related headlines correlate.
	if strings.Contains(strings.ToLower(text), "coronavirus") {
		tokens = append(tokens, "coronavirus")
	}
	return types.NewKeywordSet(tokens...), nil
}
