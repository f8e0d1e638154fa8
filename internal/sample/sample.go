// Package sample produces realistic example payloads from schema
// descriptions. Synthesis never fails; unknown shapes degrade to best-effort
// defaults because producing a body matters more than perfect schema
// fidelity.
package sample

import (
	"encoding/json"

	"github.com/loadscribe/loadscribe/internal/models"
)

// Synthesize renders a JSON-serializable value for the given schema. A nil or
// property-less object schema yields an empty object.
func Synthesize(schema *models.Schema) interface{} {
	if schema == nil {
		return map[string]interface{}{}
	}
	if len(schema.Properties) > 0 {
		out := make(map[string]interface{}, len(schema.Properties))
		for name, prop := range schema.Properties {
			out[name] = valueFor(name, prop)
		}
		return out
	}
	if schema.Type == "object" || schema.Type == "" {
		return map[string]interface{}{}
	}
	return valueFor("value", schema)
}

// valueFor applies the per-property rules, first match wins: explicit example
// (any value, including false/0/""), then a type default.
func valueFor(name string, schema *models.Schema) interface{} {
	if schema == nil {
		return "sample_" + name
	}
	if schema.HasExample {
		return schema.Example
	}
	switch schema.Type {
	case "string":
		return "sample_" + name
	case "integer", "number":
		return 123
	case "boolean":
		return true
	case "array":
		return []interface{}{itemValue(schema.Items)}
	case "object":
		return Synthesize(schema)
	default:
		return "sample_" + name
	}
}

func itemValue(items *models.Schema) interface{} {
	if items != nil && items.HasExample {
		return items.Example
	}
	return "sample_item"
}

// BodyFor returns the request body text to embed in a sampler for the given
// operation: the captured literal when present, otherwise a payload
// synthesized from the contract schema. Empty when the operation declares no
// body at all.
func BodyFor(op *models.Operation) string {
	if op.RequestBody == nil {
		return ""
	}
	if op.RequestBody.Literal != "" {
		return op.RequestBody.Literal
	}
	if op.RequestBody.Schema == nil {
		return ""
	}
	data, err := json.Marshal(Synthesize(op.RequestBody.Schema))
	if err != nil {
		return "{}"
	}
	return string(data)
}
