package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napphq/napp/pkg/types"
)

func TestNewKeywordSet_NormalizesTokens(t *testing.T) {
	ks := types.NewKeywordSet("Brexit", " brexit ", "BREXIT", "", "  ", "No Deal")

	assert.Equal(t, 2, ks.Len())
	assert.True(t, ks.Contains("brexit"))
	assert.True(t, ks.Contains("No Deal"), "Contains must normalize its argument")
	assert.False(t, ks.Contains(""))
}

func TestKeywordSet_UnionDoesNotMutate(t *testing.T) {
	a := types.NewKeywordSet("election", "results")
	b := types.NewKeywordSet("results", "exit poll")

	u := a.Union(b)

	assert.Equal(t, 3, u.Len())
	assert.Equal(t, 2, a.Len(), "receiver must stay unchanged")
	assert.Equal(t, 2, b.Len(), "argument must stay unchanged")
}

func TestKeywordSet_Overlap(t *testing.T) {
	a := types.NewKeywordSet("boris johnson", "brexit", "parliament")
	b := types.NewKeywordSet("brexit", "parliament", "no deal")

	assert.Equal(t, 2, a.Overlap(b))
	assert.Equal(t, 2, b.Overlap(a), "overlap is symmetric")
	assert.Equal(t, 0, a.Overlap(types.KeywordSet{}))
}

func TestKeywordSet_DiffReturnsSortedNewKeywords(t *testing.T) {
	a := types.NewKeywordSet("brexit")
	b := types.NewKeywordSet("parliament", "brexit", "backstop")

	assert.Equal(t, []string{"backstop", "parliament"}, a.Diff(b))
	assert.Empty(t, b.Diff(a))
}

func TestKeywordSet_JoinRoundTrip(t *testing.T) {
	ks := types.NewKeywordSet("storm", "met office", "amber warning")

	got := types.SplitKeywords(ks.Join())
	assert.Equal(t, ks, got)

	assert.Equal(t, types.KeywordSet{}, types.SplitKeywords(""))
}

func TestKeywordSet_JSONRoundTrip(t *testing.T) {
	ks := types.NewKeywordSet("b", "a", "c")

	data, err := json.Marshal(ks)
	require.NoError(t, err)
	assert.Equal(t, `["a","b","c"]`, string(data), "array must be sorted")

	var back types.KeywordSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ks, back)
}
