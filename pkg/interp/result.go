// Package interp provides control-signal plumbing for the JDL evaluator.
package interp

// Signal is a non-local-exit marker distinct from an error. Signals travel
// up through every compound-body evaluator as part of a Result until the
// construct that consumes them: Return stops at the nearest function-call
// boundary, Break and Continue at the nearest enclosing loop.
type Signal int

const (
	// SignalNone means normal completion.
	SignalNone Signal = iota
	// SignalReturn unwinds to the nearest function-call boundary.
	SignalReturn
	// SignalBreak stops the nearest enclosing loop.
	SignalBreak
	// SignalContinue skips to the next iteration of the nearest loop.
	SignalContinue
)

// String names the signal for error messages.
func (s Signal) String() string {
	switch s {
	case SignalReturn:
		return "return"
	case SignalBreak:
		return "break"
	case SignalContinue:
		return "continue"
	default:
		return "none"
	}
}

// Result is the outcome of evaluating an instruction or sequence: the value
// produced plus the control signal in flight, if any. A Result carrying a
// signal other than SignalNone must be propagated unchanged by every
// evaluator that is not the signal's target.
type Result struct {
	Value  any
	Signal Signal
}

// value wraps a plain value in a normal Result.
func value(v any) Result {
	return Result{Value: v}
}
