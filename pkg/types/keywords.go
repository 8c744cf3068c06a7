package types

import (
	"encoding/json"
	"sort"
	"strings"
)

// KeywordSet is a case-normalized set of keyword strings. The zero value is
// an empty, usable set. Mutating operations return new sets; existing sets
// are never changed in place, so a set handed to the correlator stays stable
// while a cycle is running.
type KeywordSet map[string]struct{}

// NewKeywordSet builds a set from raw tokens, lower-casing each token,
// trimming whitespace, and dropping empties and duplicates.
func NewKeywordSet(tokens ...string) KeywordSet {
	ks := make(KeywordSet, len(tokens))
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		ks[t] = struct{}{}
	}
	return ks
}

// Len returns the number of keywords in the set.
func (ks KeywordSet) Len() int { return len(ks) }

// Contains reports whether the set holds the (already normalized) keyword.
func (ks KeywordSet) Contains(kw string) bool {
	_, ok := ks[strings.ToLower(strings.TrimSpace(kw))]
	return ok
}

// Union returns a new set holding every keyword from both sets. Neither
// receiver nor argument is modified.
func (ks KeywordSet) Union(other KeywordSet) KeywordSet {
	out := make(KeywordSet, len(ks)+len(other))
	for k := range ks {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Overlap returns the size of the intersection with other. This is the
// similarity measure the correlator ranks events by.
func (ks KeywordSet) Overlap(other KeywordSet) int {
	small, large := ks, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for k := range small {
		if _, ok := large[k]; ok {
			n++
		}
	}
	return n
}

// Diff returns the keywords in other that are not in ks, sorted.
func (ks KeywordSet) Diff(other KeywordSet) []string {
	var out []string
	for k := range other {
		if _, ok := ks[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Sorted returns the keywords in lexical order.
func (ks KeywordSet) Sorted() []string {
	out := make([]string, 0, len(ks))
	for k := range ks {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Join serializes the set as a comma-joined string for storage. Keyword
// tokens containing commas would not round-trip; in practice extracted
// entities do not contain commas, so no escaping is applied.
func (ks KeywordSet) Join() string {
	return strings.Join(ks.Sorted(), ",")
}

// SplitKeywords parses a comma-joined keyword column back into a set.
func SplitKeywords(s string) KeywordSet {
	if s == "" {
		return KeywordSet{}
	}
	return NewKeywordSet(strings.Split(s, ",")...)
}

// MarshalJSON renders the set as a sorted JSON array.
func (ks KeywordSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ks.Sorted())
}

// UnmarshalJSON accepts a JSON array of keyword strings.
func (ks *KeywordSet) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	*ks = NewKeywordSet(tokens...)
	return nil
}
