// Package instr defines the instruction representation for the JDL evaluator.
// This package is the foundation that both the program loader and the
// evaluator depend on. The loader produces Instruction trees, and the
// evaluator executes them.
package instr

import (
	"fmt"
	"sort"
	"strings"
)

// Sigil prefixes a string operand that references a variable.
// "$count" resolves to the value bound to "count" in the current scope chain.
const Sigil = "$"

// Op identifies a built-in operation. Tags are resolved to Ops once, when an
// Instruction is constructed, so the evaluator dispatches on an integer
// instead of comparing strings on every execution. Tags that name no built-in
// resolve to OpCall and are treated as user-defined function calls.
type Op int

const (
	// OpCall marks a tag that is not a built-in. The evaluator looks the tag
	// up in the scope chain and calls it if it is bound to a function.
	OpCall Op = iota

	// OpVar binds a resolved value to a name in the current scope.
	// Args: [name, value]
	OpVar

	// OpInt, OpStr, OpFloat, OpBool coerce a resolved value.
	// Args: [value]
	OpInt
	OpStr
	OpFloat
	OpBool

	// OpFunc defines a named function.
	// Args: [name, params sequence, body sequence]
	OpFunc

	// OpReturn raises a Return signal carrying zero, one, or a tuple of values.
	// Args: [values...]
	OpReturn

	// OpBreak and OpContinue raise loop-control signals.
	// Args: []
	OpBreak
	OpContinue

	// OpExport copies bindings into the parent scope.
	// Args: [names...]
	OpExport

	// OpIf executes conditional branching.
	// Args: [condition, thenBody, elseBody?]
	OpIf

	// OpWhile loops while a condition holds.
	// Args: [condition, body]
	OpWhile

	// OpFor iterates a resolved sequence, binding each element to a name.
	// Args: [name, iterable, body]
	OpFor

	// OpGet reads a variable.
	// Args: [name]
	OpGet

	// OpPrint writes resolved values to the output stream.
	// Args: [values...]
	OpPrint

	// OpInput reads one line from the input stream, optionally coerced.
	// Args: [typeTag?]
	OpInput

	// OpArray builds a sequence of resolved values.
	// Args: [values...]
	OpArray

	// OpDict builds a mapping from alternating resolved keys and values.
	// Args: [k1, v1, k2, v2, ...]
	OpDict

	// OpIndex reads an element of a sequence, string, or mapping.
	// Args: [container, index]
	OpIndex

	// OpLen returns the length of a resolved value.
	// Args: [value]
	OpLen

	// OpSwitch matches a resolved value against case mappings.
	// Args: [value, case1, case2, ..., defaultBody?]
	OpSwitch

	// OpExit terminates the process.
	// Args: [status?]
	OpExit

	// OpArith covers + - * / % with same-operator flattening.
	// Args: [operands...]
	OpArith

	// OpCompare covers == != < > <= >= and or not !-> as a left fold.
	// Args: [operands...]
	OpCompare
)

// builtins maps every built-in tag to its Op. Anything absent here is OpCall.
var builtins = map[string]Op{
	"var":      OpVar,
	"int":      OpInt,
	"str":      OpStr,
	"float":    OpFloat,
	"bool":     OpBool,
	"func":     OpFunc,
	"return":   OpReturn,
	"break":    OpBreak,
	"continue": OpContinue,
	"export":   OpExport,
	"if":       OpIf,
	"while":    OpWhile,
	"for":      OpFor,
	"get":      OpGet,
	"print":    OpPrint,
	"input":    OpInput,
	"array":    OpArray,
	"dict":     OpDict,
	"index":    OpIndex,
	"len":      OpLen,
	"switch":   OpSwitch,
	"exit":     OpExit,
	"+":        OpArith,
	"-":        OpArith,
	"*":        OpArith,
	"/":        OpArith,
	"%":        OpArith,
	"==":       OpCompare,
	"!=":       OpCompare,
	"<":        OpCompare,
	">":        OpCompare,
	"<=":       OpCompare,
	">=":       OpCompare,
	"and":      OpCompare,
	"or":       OpCompare,
	"not":      OpCompare,
	"!->":      OpCompare,
}

// Lookup resolves a tag to its built-in Op, or OpCall if the tag is not a
// built-in.
func Lookup(tag string) Op {
	if op, ok := builtins[tag]; ok {
		return op
	}
	return OpCall
}

// Instruction is a single operation: a tag naming what to do plus an ordered
// operand list. Operands may be scalar literals, Sigil-prefixed variable
// references, nested *Instruction values, []any sequences, or map[any]any
// mappings.
type Instruction struct {
	Tag  string
	Op   Op
	Args []any
}

// New constructs an Instruction, resolving the tag to its Op once.
func New(tag string, args ...any) *Instruction {
	return &Instruction{Tag: tag, Op: Lookup(tag), Args: args}
}

// Normalize converts shorthand sequence elements into instructions. A bare
// tag string stands for a zero-operand instruction. The second return is
// false when the element is neither an instruction nor a tag string.
func Normalize(v any) (*Instruction, bool) {
	switch e := v.(type) {
	case *Instruction:
		return e, true
	case string:
		return New(e), true
	default:
		return nil, false
	}
}

// VarName strips the variable sigil. The second return is false when the
// operand is not a sigil-prefixed string.
func VarName(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, Sigil) {
		return "", false
	}
	return s[len(Sigil):], true
}

// summaryLimit bounds rendered instruction summaries in stack traces.
const summaryLimit = 60

// String renders the instruction as a parenthesized form, nesting operands.
func (in *Instruction) String() string {
	var b strings.Builder
	writeOperand(&b, in)
	return b.String()
}

// Summary renders the instruction like String but truncated for trace output.
func (in *Instruction) Summary() string {
	s := in.String()
	if len(s) > summaryLimit {
		s = s[:summaryLimit-3] + "..."
	}
	return s
}

func writeOperand(b *strings.Builder, v any) {
	switch e := v.(type) {
	case *Instruction:
		b.WriteByte('(')
		b.WriteString(e.Tag)
		for _, a := range e.Args {
			b.WriteByte(' ')
			writeOperand(b, a)
		}
		b.WriteByte(')')
	case string:
		fmt.Fprintf(b, "%q", e)
	case []any:
		b.WriteByte('[')
		for i, a := range e {
			if i > 0 {
				b.WriteString(" ")
			}
			writeOperand(b, a)
		}
		b.WriteByte(']')
	case map[any]any:
		// Keys are sorted by their rendering so summaries are stable.
		parts := make([]string, 0, len(e))
		for k, val := range e {
			var kb, vb strings.Builder
			writeOperand(&kb, k)
			writeOperand(&vb, val)
			parts = append(parts, kb.String()+": "+vb.String())
		}
		sort.Strings(parts)
		b.WriteByte('{')
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "%v", e)
	}
}
