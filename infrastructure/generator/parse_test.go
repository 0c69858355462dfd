package generator

import (
	"strings"
	"testing"

	"collocation-backend/domain/core/entities"
	pkgerrors "collocation-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stageOf(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	require.True(t, pkgerrors.IsUpstream(err), "expected upstream error, got %v", err)
	return pkgerrors.GetAppError(err).Code
}

func TestParseResultsStructured(t *testing.T) {
	results, err := parseResults(`{"results":[{"collocation":"strong coffee","ipa":"/strɒŋ ˈkɒfi/","meaning":"cà phê đậm","synonyms":"bold coffee"}]}`)
	require.NoError(t, err)
	assert.Equal(t, []entities.Fields{{
		Collocation: "strong coffee",
		IPA:         "/strɒŋ ˈkɒfi/",
		Meaning:     "cà phê đậm",
		Synonyms:    "bold coffee",
	}}, results)
}

func TestParseResultsFallback(t *testing.T) {
	t.Run("fenced answer with prose", func(t *testing.T) {
		text := "Here you go:\n```json\n{\"results\": [{\"collocation\": \"take action\", \"meaning\": \"hành động {ngay}\"}]}\n```\nEnjoy!"
		results, err := parseResults(text)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "hành động {ngay}", results[0].Meaning)
	})

	t.Run("multiple objects are rejected", func(t *testing.T) {
		text := `{"results": []} and also {"results": [{"collocation": "x"}]}`
		assert.Equal(t, StageMultipleJSON, stageOf(t, mustFail(parseResults(text))))
	})

	t.Run("no object", func(t *testing.T) {
		assert.Equal(t, StageNoJSON, stageOf(t, mustFail(parseResults("Sorry, I cannot help with that."))))
	})

	t.Run("unbalanced object", func(t *testing.T) {
		assert.Equal(t, StageNoJSON, stageOf(t, mustFail(parseResults(`prefix {"results": [`))))
	})

	t.Run("malformed object", func(t *testing.T) {
		assert.Equal(t, StageParse, stageOf(t, mustFail(parseResults(`answer: {"results": [1, 2]}`))))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, StageEmpty, stageOf(t, mustFail(parseResults("  \n"))))
	})

	t.Run("object without results", func(t *testing.T) {
		assert.Equal(t, StageParse, stageOf(t, mustFail(parseResults(`{"items": []}`))))
	})
}

func mustFail(_ []entities.Fields, err error) error {
	return err
}

func TestTopLevelObjects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"nested braces", `x {"a": {"b": 1}} y`, []string{`{"a": {"b": 1}}`}},
		{"brace in string", `{"a": "}"}`, []string{`{"a": "}"}`}},
		{"escaped quote in string", `{"a": "say \"{hi}\""}`, []string{`{"a": "say \"{hi}\""}`}},
		{"stray closing brace", `} {"a": 1}`, []string{`{"a": 1}`}},
		{"two objects", `{"a":1}{"b":2}`, []string{`{"a":1}`, `{"b":2}`}},
		{"none", `plain text`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, topLevelObjects(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	out := normalize([]entities.Fields{
		{Collocation: "  heavy rain ", Meaning: " mưa to "},
		{Collocation: "   ", Meaning: "dropped"},
		{Collocation: strings.Repeat("a", entities.MaxPhraseLength+1)},
		{Collocation: "long meaning", Meaning: strings.Repeat("m", entities.MaxFieldLength+1)},
	})
	assert.Equal(t, []entities.Fields{{Collocation: "heavy rain", Meaning: "mưa to"}}, out)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt([]string{"coffee", "rain"})
	assert.Contains(t, prompt, "- coffee\n- rain")
	assert.Contains(t, prompt, `"results"`)
}
