package generator

import (
	"encoding/json"
	"strings"

	"collocation-backend/domain/core/entities"
	pkgerrors "collocation-backend/pkg/errors"
)

// Failure stages, carried in the UpstreamError code
const (
	StageCredential   = "credential"
	StageEmpty        = "empty_response"
	StageNoJSON       = "no_json"
	StageMultipleJSON = "multiple_json"
	StageParse        = "parse"
	StageTransport    = "transport"
)

type generatedPayload struct {
	Results []entities.Fields `json:"results"`
}

// parseResults decodes the model answer. Structured output is tried first;
// free text is accepted only when it holds exactly one top-level object.
func parseResults(text string) ([]entities.Fields, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pkgerrors.NewUpstreamError(StageEmpty, "generator returned an empty response", nil)
	}

	var payload generatedPayload
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		return checkPayload(payload)
	}

	objects := topLevelObjects(text)
	switch len(objects) {
	case 0:
		return nil, pkgerrors.NewUpstreamError(StageNoJSON, "no JSON found in generator response", nil)
	case 1:
	default:
		return nil, pkgerrors.NewUpstreamError(StageMultipleJSON, "generator response contained multiple JSON objects", nil)
	}

	if err := json.Unmarshal([]byte(objects[0]), &payload); err != nil {
		return nil, pkgerrors.NewUpstreamError(StageParse, "failed to parse generator response", err)
	}
	return checkPayload(payload)
}

func checkPayload(payload generatedPayload) ([]entities.Fields, error) {
	if payload.Results == nil {
		return nil, pkgerrors.NewUpstreamError(StageParse, "generator response has no results", nil)
	}
	return payload.Results, nil
}

// topLevelObjects returns every balanced {...} span that is not nested in
// another one. Braces inside JSON strings are ignored.
func topLevelObjects(s string) []string {
	var (
		objects  []string
		depth    int
		start    int
		inString bool
		escaped  bool
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				objects = append(objects, s[start:i+1])
			}
		}
	}

	return objects
}

// normalize trims the generated records and drops those that would not pass
// record validation, such as an empty or over-long phrase
func normalize(results []entities.Fields) []entities.Fields {
	out := make([]entities.Fields, 0, len(results))
	for _, r := range results {
		r = r.Normalize()
		if r.Validate() != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}
