// Package interp provides comparison and boolean operators for the JDL
// evaluator.
package interp

import (
	"github.com/jdl-lang/jdl/pkg/instr"
)

// executeCompare evaluates == != < > <= >= and or not !->. All operands are
// resolved first, then folded left-to-right with the named binary operator.
// not is strictly unary.
func (ip *Interp) executeCompare(ins *instr.Instruction) (Result, error) {
	if ins.Tag == "not" {
		if len(ins.Args) != 1 {
			return Result{}, errf(ErrSyntax, "not takes 1 argument")
		}
		res, err := ip.resolve(ins.Args[0])
		if err != nil || res.Signal != SignalNone {
			return res, err
		}
		return value(!truthy(res.Value)), nil
	}

	if len(ins.Args) < 2 {
		return Result{}, errf(ErrSyntax, "%s takes at least 2 arguments", ins.Tag)
	}
	values := make([]any, len(ins.Args))
	for i, arg := range ins.Args {
		res, err := ip.resolve(arg)
		if err != nil || res.Signal != SignalNone {
			return res, err
		}
		values[i] = res.Value
	}

	acc := values[0]
	for _, v := range values[1:] {
		next, err := compareOp(ins.Tag, acc, v)
		if err != nil {
			return Result{}, err
		}
		acc = next
	}
	return value(acc), nil
}

// compareOp applies one binary comparison or boolean operator. and/or return
// the deciding operand rather than a coerced bool; ordering operators work
// on numbers and on pairs of strings.
func compareOp(op string, a, b any) (any, error) {
	switch op {
	case "==":
		return valueEquals(a, b), nil
	case "!=":
		return !valueEquals(a, b), nil
	case "and":
		if !truthy(a) {
			return a, nil
		}
		return b, nil
	case "or":
		if truthy(a) {
			return a, nil
		}
		return b, nil
	case "!->":
		found, err := containsValue(b, a)
		if err != nil {
			return nil, err
		}
		return !found, nil
	case "<", ">", "<=", ">=":
		return orderValues(op, a, b)
	}
	return nil, errf(ErrSyntax, "unknown operator: %s", op)
}

func orderValues(op string, a, b any) (any, error) {
	if af, bf, ok := bothFloat(a, b); ok {
		switch op {
		case "<":
			return af < bf, nil
		case ">":
			return af > bf, nil
		case "<=":
			return af <= bf, nil
		case ">=":
			return af >= bf, nil
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch op {
		case "<":
			return as < bs, nil
		case ">":
			return as > bs, nil
		case "<=":
			return as <= bs, nil
		case ">=":
			return as >= bs, nil
		}
	}
	return nil, errf(ErrType, "%s is not supported between %s and %s",
		op, typeName(a), typeName(b))
}
