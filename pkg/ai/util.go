package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema builds a JSON Schema for the given value's type, suitable
// for schema-constrained generation: response_format on OpenAI-compatible
// endpoints, the format field on Ollama. Additional properties are
// disallowed and definitions are inlined, since providers reject
// $ref-style schemas.
func GenerateSchema(value any) any {
	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(reflect.New(t).Interface())
}

// UnmarshalFlexible parses model-generated JSON into out, tolerating the
// damage chat models actually do to their output: a reply double-encoded
// as a JSON string, unquoted keys, single quotes, trailing commas, a
// missing closing brace, or the root object opened twice. A strict decode
// is tried first, then string-unwrapping, then jsonrepair on whatever is
// left.
//
// The mind-map recovery path feeds this whatever balanced region it finds
// in free text, so inputs here are frequently almost-JSON rather than
// JSON.
func UnmarshalFlexible(input string, out any) error {
	text := strings.TrimSpace(input)

	if json.Unmarshal([]byte(text), out) == nil {
		return nil
	}

	// A reply wrapped in quotes is a JSON string holding the real payload.
	var unwrapped string
	if json.Unmarshal([]byte(text), &unwrapped) == nil {
		unwrapped = strings.TrimSpace(unwrapped)
		if json.Unmarshal([]byte(unwrapped), out) == nil {
			return nil
		}
		text = unwrapped
	}

	repaired, err := jsonrepair.JSONRepair(trimDoubledBrace(text))
	if err != nil {
		return fmt.Errorf("failed to repair generated JSON: %w (input: %s)", err, text)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("generated JSON unusable after repair: %w (repaired: %s)", err, repaired)
	}
	return nil
}

// trimDoubledBrace drops a stray extra "{" ahead of an object. Smaller
// models sometimes open the mind-map root twice; jsonrepair turns that
// into a nested object instead of flagging it, so it is stripped first.
func trimDoubledBrace(text string) string {
	if !strings.HasPrefix(text, "{") {
		return text
	}
	rest := strings.TrimSpace(strings.TrimPrefix(text, "{"))
	if strings.HasPrefix(rest, "{") {
		return rest
	}
	return text
}
