// Package interp provides arithmetic evaluation for the JDL evaluator.
package interp

import (
	"math"
	"strings"

	"github.com/jdl-lang/jdl/pkg/instr"
)

// flattenOperands expands nested instructions sharing the same arithmetic
// operator into a single operand list, resolving everything else in place.
// (+ (+ 1 2) 3) becomes [1 2 3]; the subsequent left-to-right reduction is
// equivalent to reducing the nested form, since each nesting level reduces
// left-to-right with the same binary operator. Signals raised while resolving
// an operand abort the flattening and propagate.
func (ip *Interp) flattenOperands(tag string, args []any) ([]any, Result, error) {
	queue := make([]any, len(args))
	copy(queue, args)

	var values []any
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if nested, ok := item.(*instr.Instruction); ok && nested.Tag == tag {
			queue = append(append([]any{}, nested.Args...), queue...)
			continue
		}
		res, err := ip.resolve(item)
		if err != nil || res.Signal != SignalNone {
			return nil, res, err
		}
		values = append(values, res.Value)
	}
	return values, Result{}, nil
}

// executeArith evaluates + - * / % as a left-to-right reduction over the
// flattened operand list.
func (ip *Interp) executeArith(ins *instr.Instruction) (Result, error) {
	if len(ins.Args) == 0 {
		return Result{}, errf(ErrSyntax, "%s takes at least 1 argument", ins.Tag)
	}
	values, res, err := ip.flattenOperands(ins.Tag, ins.Args)
	if err != nil || res.Signal != SignalNone {
		return res, err
	}
	acc := values[0]
	for _, v := range values[1:] {
		acc, err = arithOp(ins.Tag, acc, v)
		if err != nil {
			return Result{}, err
		}
	}
	return value(acc), nil
}

// arithOp applies one binary arithmetic operator. Integer operands keep
// integer results except for /, which always divides exactly. Addition also
// concatenates strings and sequences; multiplication also repeats strings.
func arithOp(op string, a, b any) (any, error) {
	switch op {
	case "+":
		return addValues(a, b)
	case "-":
		if ai, bi, ok := bothInt(a, b); ok {
			return ai - bi, nil
		}
		if af, bf, ok := bothFloat(a, b); ok {
			return af - bf, nil
		}
	case "*":
		return mulValues(a, b)
	case "/":
		af, bf, ok := bothFloat(a, b)
		if !ok {
			break
		}
		if bf == 0 {
			return nil, errf(ErrZeroDivision, "division by zero")
		}
		return af / bf, nil
	case "%":
		if ai, bi, ok := bothInt(a, b); ok {
			if bi == 0 {
				return nil, errf(ErrZeroDivision, "modulo by zero")
			}
			// Result takes the divisor's sign.
			return ((ai % bi) + bi) % bi, nil
		}
		if af, bf, ok := bothFloat(a, b); ok {
			if bf == 0 {
				return nil, errf(ErrZeroDivision, "modulo by zero")
			}
			m := math.Mod(af, bf)
			if m != 0 && (m < 0) != (bf < 0) {
				m += bf
			}
			return m, nil
		}
	}
	return nil, errf(ErrType, "unsupported operand types for %s: %s and %s",
		op, typeName(a), typeName(b))
}

func addValues(a, b any) (any, error) {
	if ai, bi, ok := bothInt(a, b); ok {
		return ai + bi, nil
	}
	if af, bf, ok := bothFloat(a, b); ok {
		return af + bf, nil
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as + bs, nil
		}
	}
	if aseq, aok := a.([]any); aok {
		if bseq, bok := b.([]any); bok {
			out := make([]any, 0, len(aseq)+len(bseq))
			out = append(out, aseq...)
			out = append(out, bseq...)
			return out, nil
		}
	}
	return nil, errf(ErrType, "unsupported operand types for +: %s and %s",
		typeName(a), typeName(b))
}

func mulValues(a, b any) (any, error) {
	if ai, bi, ok := bothInt(a, b); ok {
		return ai * bi, nil
	}
	if af, bf, ok := bothFloat(a, b); ok {
		return af * bf, nil
	}
	if s, n, ok := stringAndCount(a, b); ok {
		if n < 0 {
			n = 0
		}
		return strings.Repeat(s, int(n)), nil
	}
	return nil, errf(ErrType, "unsupported operand types for *: %s and %s",
		typeName(a), typeName(b))
}

func bothInt(a, b any) (int64, int64, bool) {
	ai, aok := asInt(a)
	bi, bok := asInt(b)
	return ai, bi, aok && bok
}

func bothFloat(a, b any) (float64, float64, bool) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	return af, bf, aok && bok
}

func stringAndCount(a, b any) (string, int64, bool) {
	if s, ok := a.(string); ok {
		if n, nok := asInt(b); nok {
			return s, n, true
		}
	}
	if s, ok := b.(string); ok {
		if n, nok := asInt(a); nok {
			return s, n, true
		}
	}
	return "", 0, false
}
