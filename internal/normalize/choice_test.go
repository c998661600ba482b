package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/docfill/internal/model"
)

var levelOptions = []model.Option{
	{ID: 1, Name: "National"},
	{ID: 2, Name: "International"},
}

func TestChoice_SubstringPrefersWholeWords(t *testing.T) {
	t.Parallel()

	id, ok := Choice("international conference", "event_type", levelOptions)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	id, ok = Choice("international conference", "level", levelOptions)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestChoice_StateLevel(t *testing.T) {
	t.Parallel()

	_, ok := Choice("Gujarat state level", "level", levelOptions)
	assert.False(t, ok)

	withState := append([]model.Option{{ID: 3, Name: "State"}}, levelOptions...)
	id, ok := Choice("Gujarat state level", "level", withState)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}

func TestChoice_Exact(t *testing.T) {
	t.Parallel()

	id, ok := Choice("  NATIONAL ", "level", levelOptions)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestChoice_LevelSynonyms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want int64
	}{
		{"Held in India", 1},
		{"Global summit", 2},
		{"World Congress on Materials", 2},
		{"Conducted abroad", 2},
	}
	for _, tt := range tests {
		id, ok := Choice(tt.raw, "award_level", levelOptions)
		assert.True(t, ok, tt.raw)
		assert.Equal(t, tt.want, id, tt.raw)
	}

	// Synonyms only apply to level fields.
	_, ok := Choice("Held in India", "sponsor", levelOptions)
	assert.False(t, ok)
}

func TestChoice_OptionContainsRaw(t *testing.T) {
	t.Parallel()

	opts := []model.Option{
		{ID: 10, Name: "Scopus Indexed Journal"},
		{ID: 11, Name: "UGC Care Listed"},
	}
	id, ok := Choice("ugc care", "indexing", opts)
	assert.True(t, ok)
	assert.Equal(t, int64(11), id)
}

func TestChoice_LongestContainedOptionWins(t *testing.T) {
	t.Parallel()

	opts := []model.Option{
		{ID: 1, Name: "Conference"},
		{ID: 2, Name: "International Conference"},
	}
	id, ok := Choice("paper at international conference on AI", "publication_type", opts)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestChoice_NoMatch(t *testing.T) {
	t.Parallel()

	_, ok := Choice("workshop", "level", levelOptions)
	assert.False(t, ok)
	_, ok = Choice("", "level", levelOptions)
	assert.False(t, ok)
	_, ok = Choice("national", "level", nil)
	assert.False(t, ok)
}

func TestIsLevelField(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLevelField("level"))
	assert.True(t, IsLevelField("Award_Level"))
	assert.False(t, IsLevelField("title"))
}
