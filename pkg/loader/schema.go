// Package loader provides schema validation for JDL program documents.
package loader

// programSchema validates the JSON form of a program document before any
// conversion happens: a top-level object holding a "code" array whose
// elements are instructions. An instruction is either a bare tag string or
// an object with a required "op" tag and an optional "args" array. Operand
// contents are unconstrained here; the evaluator enforces per-instruction
// shapes at run time.
const programSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "JDL program",
  "type": "object",
  "required": ["code"],
  "additionalProperties": false,
  "properties": {
    "code": {
      "type": "array",
      "items": {"$ref": "#/definitions/instruction"}
    }
  },
  "definitions": {
    "instruction": {
      "oneOf": [
        {"type": "string"},
        {
          "type": "object",
          "required": ["op"],
          "additionalProperties": false,
          "properties": {
            "op": {"type": "string", "minLength": 1},
            "args": {"type": "array"}
          }
        }
      ]
    }
  }
}`
