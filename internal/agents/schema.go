package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	apperrors "upbit-trader/internal/errors"
)

// Schema is a named JSON schema that oracle responses must match exactly.
type Schema struct {
	Name     string
	raw      json.RawMessage
	compiled *jsonschema.Schema
}

// CompileSchema compiles a JSON schema document.
func CompileSchema(name, doc string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	url := name + ".json"
	if err := compiler.AddResource(url, strings.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("adding schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}
	return &Schema{Name: name, raw: json.RawMessage(doc), compiled: compiled}, nil
}

// MustCompileSchema is like CompileSchema but panics on error. It is meant for
// package-level schema constants.
func MustCompileSchema(name, doc string) *Schema {
	s, err := CompileSchema(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Raw returns the schema document as sent to the reasoning service.
func (s *Schema) Raw() json.RawMessage {
	return s.raw
}

// Decode extracts the JSON object from raw, validates it against the schema
// and unmarshals it into dst. Any failure is a *SchemaViolation.
func (s *Schema) Decode(raw string, dst interface{}) error {
	body, ok := extractJSON(raw)
	if !ok {
		return apperrors.NewSchemaViolation(s.Name, raw, fmt.Errorf("no JSON object in response"))
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return apperrors.NewSchemaViolation(s.Name, raw, err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return apperrors.NewSchemaViolation(s.Name, raw, err)
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return apperrors.NewSchemaViolation(s.Name, raw, err)
	}
	return nil
}

// extractJSON returns the JSON object held in raw. Strict mode normally
// yields a bare object, but some compatible endpoints wrap it in prose or a
// ```json fence.
func extractJSON(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if gjson.Valid(trimmed) && gjson.Parse(trimmed).IsObject() {
		return trimmed, true
	}

	if start := strings.Index(trimmed, "```"); start >= 0 {
		rest := trimmed[start+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate := strings.TrimSpace(rest[:end])
			if gjson.Valid(candidate) && gjson.Parse(candidate).IsObject() {
				return candidate, true
			}
		}
	}

	first := strings.Index(trimmed, "{")
	last := strings.LastIndex(trimmed, "}")
	if first >= 0 && last > first {
		candidate := trimmed[first : last+1]
		if gjson.Valid(candidate) && gjson.Parse(candidate).IsObject() {
			return candidate, true
		}
	}
	return "", false
}

// TradeDecisionSchema is the strict contract for the decision oracle.
var TradeDecisionSchema = MustCompileSchema("trade_decision", `{
  "type": "object",
  "properties": {
    "decision": {
      "type": "string",
      "enum": ["BUY", "SELL", "HOLD"],
      "description": "The decision being made, BUY, SELL or HOLD"
    },
    "reason": {
      "type": "string",
      "description": "The reason for the decision."
    },
    "amount": {
      "type": "number",
      "minimum": 0,
      "description": "The amount in KRW to buy or sell at the moment based on the data provided."
    }
  },
  "required": ["decision", "reason", "amount"],
  "additionalProperties": false
}`)

// ReflectionSchema is the strict contract for the reflection oracle.
var ReflectionSchema = MustCompileSchema("trading_assistant_analysis", `{
  "type": "object",
  "properties": {
    "reflection": {
      "type": "string",
      "description": "A brief reflection on the recent trading decisions."
    },
    "insights": {
      "type": "object",
      "description": "Insights on what worked well and what didn't.",
      "properties": {
        "successes": {
          "type": "string",
          "description": "Insights on what worked well."
        },
        "challenges": {
          "type": "string",
          "description": "Insights on what didn't work well."
        }
      },
      "required": ["successes", "challenges"],
      "additionalProperties": false
    },
    "recommended_actions": {
      "type": "string",
      "description": "Suggestions for improvement in future trading decisions."
    },
    "market_trends": {
      "type": "string",
      "description": "Any patterns or trends you notice in the market data."
    }
  },
  "required": ["reflection", "insights", "recommended_actions", "market_trends"],
  "additionalProperties": false
}`)
