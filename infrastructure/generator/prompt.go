package generator

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const promptTemplate = `You are helping a Vietnamese learner build an English collocation notebook.

For each of the following words, suggest common, natural English collocations that use the word:
%s

For every collocation provide:
- "collocation": the collocation itself, in lowercase unless a proper noun requires otherwise
- "ipa": its IPA transcription between slashes
- "meaning": a short meaning in Vietnamese
- "synonyms": a few English synonyms or near-equivalent phrases, comma separated

Return ONLY a JSON object of the form:
{"results": [{"collocation": "...", "ipa": "...", "meaning": "...", "synonyms": "..."}]}`

// buildPrompt embeds the requested words, one per line
func buildPrompt(words []string) string {
	lines := make([]string, len(words))
	for i, w := range words {
		lines[i] = "- " + w
	}
	return fmt.Sprintf(promptTemplate, strings.Join(lines, "\n"))
}

// responseSchema constrains the model to the {results: [...]} shape
func responseSchema() *genai.Schema {
	field := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"results": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"collocation": field,
						"ipa":         field,
						"meaning":     field,
						"synonyms":    field,
					},
					Required:         []string{"collocation", "ipa", "meaning", "synonyms"},
					PropertyOrdering: []string{"collocation", "ipa", "meaning", "synonyms"},
				},
			},
		},
		Required: []string{"results"},
	}
}
