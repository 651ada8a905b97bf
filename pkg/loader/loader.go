// Package loader reads JDL program files and builds the in-memory
// instruction tree the evaluator executes.
//
// A program document has the shape
//
//	{"code": [INSTR, ...]}
//
// where INSTR is {"op": TAG, "args": [OPERAND, ...]} or a bare tag string.
// Operands may be scalars, "$name" variable references, nested instructions,
// arrays (sequence literals), or objects without an "op" key (mapping
// literals). JSON documents are validated against an embedded schema before
// conversion; YAML documents carry the same shape. Files may start with a
// UTF-8 or UTF-16 byte order mark.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/jdl-lang/jdl/pkg/instr"
)

// Program is a loaded instruction tree ready for evaluation.
type Program struct {
	// Path is the file the program was loaded from, if any.
	Path string
	// Code is the top-level instruction sequence.
	Code []any
}

// LoadFile reads and converts a program file. The format is chosen by
// extension: .yaml/.yml is YAML, everything else JSON.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s not found", path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var prog *Program
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		prog, err = LoadYAML(data)
	default:
		prog, err = LoadJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	prog.Path = path
	return prog, nil
}

// LoadJSON validates and converts a JSON program document.
func LoadJSON(data []byte) (*Program, error) {
	data, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	if err := validate(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc struct {
		Code []any `json:"code"`
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	code, err := convertSequence(doc.Code)
	if err != nil {
		return nil, err
	}
	return &Program{Code: code}, nil
}

// LoadYAML converts a YAML program document.
func LoadYAML(data []byte) (*Program, error) {
	data, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Code []any `yaml:"code"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Code == nil {
		return nil, fmt.Errorf("program document must have a \"code\" sequence")
	}

	code, err := convertSequence(doc.Code)
	if err != nil {
		return nil, err
	}
	return &Program{Code: code}, nil
}

// decodeText strips a UTF-8 byte order mark and transcodes UTF-16 input,
// so documents written by BOM-emitting editors load unchanged.
func decodeText(data []byte) ([]byte, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode program text: %w", err)
	}
	return out, nil
}

// validate checks the document against the program schema.
func validate(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(programSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid program document: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// convertSequence converts a decoded top-level or nested code sequence.
func convertSequence(elements []any) ([]any, error) {
	out := make([]any, len(elements))
	for i, e := range elements {
		converted, err := convert(e)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

// convert turns one decoded document node into its runtime shape: objects
// with an "op" key become instructions with their built-in op resolved once,
// other objects become mapping literals with literally-parsed keys, arrays
// become sequences, and numbers normalize to int64 or float64.
func convert(v any) (any, error) {
	switch node := v.(type) {
	case map[string]any:
		if tag, ok := node["op"].(string); ok {
			return convertInstruction(tag, node)
		}
		out := make(map[any]any, len(node))
		for k, val := range node {
			converted, err := convert(val)
			if err != nil {
				return nil, err
			}
			out[parseKey(k)] = converted
		}
		return out, nil
	case map[any]any:
		// YAML mappings with non-string keys decode to this shape directly.
		out := make(map[any]any, len(node))
		for k, val := range node {
			key, err := convert(k)
			if err != nil {
				return nil, err
			}
			converted, err := convert(val)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case []any:
		return convertSequence(node)
	case json.Number:
		return convertNumber(node)
	case int:
		return int64(node), nil
	case int64, float64, bool, string, nil:
		return node, nil
	default:
		return nil, fmt.Errorf("unsupported value in program document: %T", v)
	}
}

func convertInstruction(tag string, node map[string]any) (*instr.Instruction, error) {
	for k := range node {
		if k != "op" && k != "args" {
			return nil, fmt.Errorf("instruction %q has unexpected key %q", tag, k)
		}
	}
	var args []any
	if raw, ok := node["args"]; ok {
		seq, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("instruction %q: args must be an array", tag)
		}
		converted, err := convertSequence(seq)
		if err != nil {
			return nil, err
		}
		args = converted
	}
	return instr.New(tag, args...), nil
}

// convertNumber keeps integral JSON numbers as int64 and everything else as
// float64.
func convertNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", n.String())
	}
	return f, nil
}

// parseKey interprets a JSON object key literally: numbers and booleans keep
// their value types so switch cases like {"2": [...]} match a numeric
// scrutinee. Everything else, including "$name" references, stays a string.
func parseKey(k string) any {
	if i, err := strconv.ParseInt(k, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(k, 64); err == nil {
		return f
	}
	switch k {
	case "true":
		return true
	case "false":
		return false
	}
	return k
}
